package physics

import (
	"math"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// SolidChecker сообщает, твёрд ли блок для столкновений (world.Engine.Collides)
type SolidChecker interface {
	Collides(c vec.Vec3) bool
}

// BoxCollider представляет выровненный по осям коллайдер в мировых координатах
type BoxCollider struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// NewBoxCollider создаёт коллайдер с центром основания в feet
func NewBoxCollider(feet mgl32.Vec3, width, height float32) BoxCollider {
	half := width / 2
	return BoxCollider{
		Min: mgl32.Vec3{feet.X() - half, feet.Y(), feet.Z() - half},
		Max: mgl32.Vec3{feet.X() + half, feet.Y() + height, feet.Z() + half},
	}
}

// Offset возвращает коллайдер, сдвинутый на d
func (b BoxCollider) Offset(d mgl32.Vec3) BoxCollider {
	return BoxCollider{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Feet возвращает центр основания
func (b BoxCollider) Feet() mgl32.Vec3 {
	return mgl32.Vec3{(b.Min.X() + b.Max.X()) / 2, b.Min.Y(), (b.Min.Z() + b.Max.Z()) / 2}
}

// CheckBoxCollision проверяет пересечение двух коллайдеров (касание не считается)
func CheckBoxCollision(a, b BoxCollider) bool {
	return a.Min.X() < b.Max.X() && a.Max.X() > b.Min.X() &&
		a.Min.Y() < b.Max.Y() && a.Max.Y() > b.Min.Y() &&
		a.Min.Z() < b.Max.Z() && a.Max.Z() > b.Min.Z()
}

// GetCollisionPoints возвращает блоки, которые задевает коллайдер
func GetCollisionPoints(b BoxCollider) []vec.Vec3 {
	const eps = 1e-4
	lo := [3]int{floor(b.Min.X()), floor(b.Min.Y()), floor(b.Min.Z())}
	hi := [3]int{floor(b.Max.X() - eps), floor(b.Max.Y() - eps), floor(b.Max.Z() - eps)}

	points := make([]vec.Vec3, 0, (hi[0]-lo[0]+1)*(hi[1]-lo[1]+1)*(hi[2]-lo[2]+1))
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				points = append(points, vec.Vec3{X: x, Y: y, Z: z})
			}
		}
	}
	return points
}

// Overlaps сообщает, задевает ли коллайдер хотя бы один твёрдый блок.
// Блоки вне диапазона высот твёрдыми не считаются.
func Overlaps(world SolidChecker, b BoxCollider) bool {
	for _, p := range GetCollisionPoints(b) {
		if p.InHeightRange() && world.Collides(p) {
			return true
		}
	}
	return false
}

// CanMoveToPosition проверяет, может ли коллайдер оказаться в позиции feet
func CanMoveToPosition(world SolidChecker, b BoxCollider, feet mgl32.Vec3) bool {
	return !Overlaps(world, b.Offset(feet.Sub(b.Feet())))
}

// MoveAndSlide двигает коллайдер на delta по осям Y, X, Z по очереди.
// Упёршись в блок, движение по оси останавливается у его грани. Возвращает
// новый коллайдер и признак касания опоры снизу.
func MoveAndSlide(world SolidChecker, b BoxCollider, delta mgl32.Vec3) (BoxCollider, bool) {
	grounded := false
	for _, axis := range [3]int{1, 0, 2} {
		remaining := delta[axis]
		for remaining != 0 {
			s := stepToBoundary(b, axis, remaining)
			step := mgl32.Vec3{}
			step[axis] = s
			moved := b.Offset(step)
			if Overlaps(world, moved) {
				if axis == 1 && remaining < 0 {
					grounded = true
				}
				break
			}
			b = moved
			remaining -= s
		}
	}
	return b, grounded
}

// stepToBoundary возвращает шаг до следующей целой грани, но не дальше remaining.
// За один шаг коллайдер входит не более чем в один новый слой блоков.
func stepToBoundary(b BoxCollider, axis int, remaining float32) float32 {
	if remaining > 0 {
		edge := b.Max[axis]
		s := float32(math.Floor(float64(edge))+1) - edge
		if s > remaining {
			return remaining
		}
		return s
	}
	edge := b.Min[axis]
	s := float32(math.Ceil(float64(edge))-1) - edge
	if s < remaining {
		return remaining
	}
	return s
}

// DropToGround опускает коллайдер по столбцу, пока он не встанет на опору.
// Возвращает false, если опоры нет до нижней границы мира.
func DropToGround(world SolidChecker, b BoxCollider) (BoxCollider, bool) {
	for b.Min.Y() > 0 {
		next, grounded := MoveAndSlide(world, b, mgl32.Vec3{0, -1, 0})
		if grounded {
			return next, true
		}
		b = next
	}
	return b, false
}

func floor(f float32) int {
	return int(math.Floor(float64(f)))
}
