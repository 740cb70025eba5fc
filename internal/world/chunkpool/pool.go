package chunkpool

import (
	"fmt"

	"github.com/annel0/voxel-engine/internal/vec"
)

// MaxRadius: наибольший допустимый радиус обзора, (2·32+5)² = 4761 слот
const MaxRadius = 32

// ClampRadius приводит радиус к диапазону [0, MaxRadius]
func ClampRadius(radius int) int {
	switch {
	case radius < 0:
		return 0
	case radius > MaxRadius:
		return MaxRadius
	}
	return radius
}

// Size возвращает число слотов для радиуса обзора: (2r+5)²
func Size(radius int) int {
	radius = ClampRadius(radius)
	side := 2*radius + 5
	return side * side
}

// Pool: фиксированный набор слотов под радиус обзора
type Pool struct {
	Radius   int
	Registry *Registry

	slots []*Slot
}

// New создаёт пул и выделяет GPU-хэндлы каждому слоту один раз.
// nil-аллокатор заменяется SequentialAllocator.
func New(radius int, alloc HandleAllocator) *Pool {
	if alloc == nil {
		alloc = &SequentialAllocator{}
	}
	radius = ClampRadius(radius)

	n := Size(radius)
	p := &Pool{
		Radius:   radius,
		Registry: NewRegistry(),
		slots:    make([]*Slot, n),
	}
	for i := range p.slots {
		p.slots[i] = newSlot(i, alloc.Allocate(i))
	}
	return p
}

// Len возвращает число слотов
func (p *Pool) Len() int { return len(p.slots) }

// Slot возвращает слот по индексу или nil
func (p *Pool) Slot(i int) *Slot {
	if i < 0 || i >= len(p.slots) {
		return nil
	}
	return p.slots[i]
}

// Slots возвращает все слоты
func (p *Pool) Slots() []*Slot { return p.slots }

// Claim назначает слоту i позицию через реестр
func (p *Pool) Claim(i int, pos vec.Vec2) (owner int, ok bool) {
	s := p.Slot(i)
	if s == nil {
		return -1, false
	}
	return p.Registry.Claim(s, pos)
}

// Free возвращает индексы незанятых слотов
func (p *Pool) Free() []int {
	var free []int
	for _, s := range p.slots {
		if _, _, claimed := s.Claim(); !claimed {
			free = append(free, s.Index)
		}
	}
	return free
}

// Reset освобождает все слоты и очищает реестр. GPU-хэндлы сохраняются.
func (p *Pool) Reset() {
	for _, s := range p.slots {
		p.Registry.Release(s)
	}
	p.Registry.clear()
}

// CheckExclusive проверяет, что никакие два слота не занимают одну позицию
// и что реестр согласован со слотами
func (p *Pool) CheckExclusive() error {
	seen := make(map[vec.Vec2]int)
	for _, s := range p.slots {
		pos, _, claimed := s.Claim()
		if !claimed {
			continue
		}
		if other, dup := seen[pos]; dup {
			return fmt.Errorf("слоты %d и %d занимают чанк (%d,%d)", other, s.Index, pos.X, pos.Z)
		}
		seen[pos] = s.Index
	}

	for pos, idx := range p.Registry.Snapshot() {
		s := p.Slot(idx)
		if s == nil {
			return fmt.Errorf("реестр ссылается на несуществующий слот %d", idx)
		}
		claimed, _, ok := s.Claim()
		if !ok || claimed != pos {
			return fmt.Errorf("реестр: чанк (%d,%d) -> слот %d, но слот занимает другую позицию", pos.X, pos.Z, idx)
		}
	}
	return nil
}
