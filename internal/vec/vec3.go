package vec

// Vec3 представляет блочную координату в мире
type Vec3 struct {
	X int
	Y int
	Z int
}

// ToChunkCoords преобразует блочную координату в координаты чанка
func (v Vec3) ToChunkCoords() Vec2 {
	return Vec2{X: FloorDiv(v.X, ChunkWidth), Z: FloorDiv(v.Z, ChunkWidth)}
}

// LocalInChunk возвращает локальные координаты внутри чанка
func (v Vec3) LocalInChunk() Vec3 {
	return Vec3{X: FloorMod(v.X, ChunkWidth), Y: v.Y, Z: FloorMod(v.Z, ChunkWidth)}
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// InHeightRange проверяет, что Y лежит внутри столба чанка
func (v Vec3) InHeightRange() bool {
	return v.Y >= 0 && v.Y < ChunkHeight
}
