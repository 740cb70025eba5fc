package mesher

import "github.com/annel0/voxel-engine/internal/vec"

// Face: направление грани в каноническом порядке
type Face uint8

const (
	FacePosX Face = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ

	faceCount
)

// String возвращает короткое имя грани
func (f Face) String() string {
	switch f {
	case FacePosX:
		return "+X"
	case FaceNegX:
		return "-X"
	case FacePosY:
		return "+Y"
	case FaceNegY:
		return "-Y"
	case FacePosZ:
		return "+Z"
	case FaceNegZ:
		return "-Z"
	default:
		return "?"
	}
}

// faceNormals: смещение к соседу для каждой грани
var faceNormals = [faceCount]vec.Vec3{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// faceTangents: две оси, лежащие в плоскости грани
var faceTangents = [faceCount][2]vec.Vec3{
	{{Z: 1}, {Y: 1}},
	{{Z: 1}, {Y: 1}},
	{{X: 1}, {Z: 1}},
	{{X: 1}, {Z: 1}},
	{{X: 1}, {Y: 1}},
	{{X: 1}, {Y: 1}},
}

// cornerSigns: знаки смещения вдоль касательных для углов 0..3 (обход по кругу)
var cornerSigns = [4][2]int{
	{-1, -1},
	{1, -1},
	{1, 1},
	{-1, 1},
}

// quadCorners: порядок углов для двух треугольников грани
var quadCorners = [6]uint8{0, 1, 2, 2, 3, 0}

// VerticesPerFace: число вершин одной грани
const VerticesPerFace = len(quadCorners)

// baseLight: базовая яркость угла до вычета затенения
var baseLight = [faceCount][4]int{
	{13, 13, 13, 13},
	{13, 13, 13, 13},
	{15, 15, 15, 15},
	{9, 9, 9, 9},
	{12, 12, 12, 12},
	{12, 12, 12, 12},
}

// AmbChanges: штраф яркости по числу затеняющих соседей угла (0..3)
var AmbChanges = [4]int{0, 3, 5, 7}

// TopShadow: затемнение грани, над слоем которой в колонке есть блок
const TopShadow = 3

// occluders возвращает три смещения, затеняющих угол: два ребра и диагональ
// в слое за гранью
func occluders(f Face, corner uint8) [3]vec.Vec3 {
	n := faceNormals[f]
	t := faceTangents[f]
	s := cornerSigns[corner]

	a := scale(t[0], s[0])
	b := scale(t[1], s[1])
	return [3]vec.Vec3{
		n.Add(a),
		n.Add(b),
		n.Add(a).Add(b),
	}
}

func scale(v vec.Vec3, k int) vec.Vec3 {
	return vec.Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Brightness вычисляет яркость угла по числу затеняющих соседей
func Brightness(f Face, corner uint8, occluding int, shadowed bool) uint8 {
	if occluding < 0 {
		occluding = 0
	}
	if occluding > 3 {
		occluding = 3
	}

	b := baseLight[f][corner] - AmbChanges[occluding]
	if shadowed {
		b -= TopShadow
	}
	if b < 0 {
		b = 0
	}
	if b > 15 {
		b = 15
	}
	return uint8(b)
}
