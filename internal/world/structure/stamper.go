package structure

import (
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// Setter: приёмник правок генерации (обычно store.Store)
type Setter interface {
	Set(c vec.Vec3, v block.Value, isUser bool)
}

// Requeuer ставит фоновую перестройку чанка в автономном режиме
type Requeuer func(chunk vec.Vec2)

// Stamper печатает префабы в слой правок генерации
type Stamper struct {
	target  Setter
	requeue Requeuer
}

// NewStamper создаёт штамповщик. requeue может быть nil.
func NewStamper(target Setter, requeue Requeuer) *Stamper {
	return &Stamper{target: target, requeue: requeue}
}

// WorldPos возвращает мировую координату вокселя: X и Z центрируются
// относительно origin, Y отсчитывается от origin без сдвига.
func WorldPos(origin vec.Vec3, p *Prefab, v Voxel) vec.Vec3 {
	return vec.Vec3{
		X: origin.X + v.X - p.Size.X/2,
		Y: origin.Y + v.Y,
		Z: origin.Z + v.Z - p.Size.Z/2,
	}
}

// Stamp записывает все воксели префаба как правки генерации.
// Если implicated не nil, затронутые чанки добавляются в него (пакетный режим),
// иначе каждый затронутый чанк один раз передаётся в Requeuer.
// Возвращает число записанных блоков.
func (s *Stamper) Stamp(origin vec.Vec3, p *Prefab, implicated map[vec.Vec2]struct{}) int {
	if p == nil {
		return 0
	}

	touched := implicated
	if touched == nil {
		touched = make(map[vec.Vec2]struct{})
	}

	written := 0
	for _, v := range p.Voxels {
		pos := WorldPos(origin, p, v)
		if !pos.InHeightRange() {
			continue
		}
		s.target.Set(pos, block.Make(ColorToBlock(v.Color)), false)
		touched[pos.ToChunkCoords()] = struct{}{}
		written++
	}

	if implicated == nil && s.requeue != nil {
		for chunk := range touched {
			s.requeue(chunk)
		}
	}
	return written
}
