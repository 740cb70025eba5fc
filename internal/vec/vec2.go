package vec

import "math"

// Размеры чанка в блоках.
const (
	ChunkWidth  = 15  // Ширина чанка по X и Z
	ChunkHeight = 128 // Высота чанка по Y
)

// Vec2 представляет координаты чанка на горизонтальной плоскости (X, Z)
type Vec2 struct {
	X, Z int
}

// Origin возвращает блочную координату угла (0, 0, 0) чанка
func (v Vec2) Origin() Vec3 {
	return Vec3{X: v.X * ChunkWidth, Y: 0, Z: v.Z * ChunkWidth}
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Z: v.Z + other.Z}
}

// DistanceTo вычисляет расстояние до другого чанка
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dz := float64(v.Z - other.Z)
	return math.Sqrt(dx*dx + dz*dz)
}

// ChebyshevTo возвращает расстояние по максимальной компоненте.
// Квадрат видимости вокруг наблюдателя задаётся именно этой метрикой.
func (v Vec2) ChebyshevTo(other Vec2) int {
	dx := v.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dz := v.Z - other.Z
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}

// FloorDiv делит с округлением вниз (корректно для отрицательных чисел)
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod возвращает неотрицательный остаток от деления
func FloorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
