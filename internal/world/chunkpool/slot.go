package chunkpool

import (
	"sync"

	"github.com/annel0/voxel-engine/internal/vec"
)

// GPUHandles: постоянные идентификаторы GPU-буферов слота.
// Выделяются один раз при создании пула и переиспользуются при переназначении.
type GPUHandles struct {
	SolidVBO          uint32
	SolidAuxVBO       uint32
	TransparentVBO    uint32
	TransparentAuxVBO uint32
}

// HandleAllocator выдаёт GPU-хэндлы для слотов
type HandleAllocator interface {
	Allocate(slot int) GPUHandles
}

// SequentialAllocator выдаёт последовательные номера; используется без GPU
type SequentialAllocator struct {
	mu   sync.Mutex
	next uint32
}

// Allocate выдаёт четыре новых номера
func (a *SequentialAllocator) Allocate(int) GPUHandles {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := GPUHandles{
		SolidVBO:          a.next + 1,
		SolidAuxVBO:       a.next + 2,
		TransparentVBO:    a.next + 3,
		TransparentAuxVBO: a.next + 4,
	}
	a.next += 4
	return h
}

// MeshBuffers: CPU-массивы вершин одного меша
type MeshBuffers struct {
	Solid          []uint32
	SolidAux       []uint8
	Transparent    []uint32
	TransparentAux []uint8
}

// Reset очищает массивы, сохраняя ёмкость
func (b *MeshBuffers) Reset() {
	b.Solid = b.Solid[:0]
	b.SolidAux = b.SolidAux[:0]
	b.Transparent = b.Transparent[:0]
	b.TransparentAux = b.TransparentAux[:0]
}

// SolidCount возвращает число непрозрачных вершин
func (b *MeshBuffers) SolidCount() int { return len(b.Solid) }

// TransparentCount возвращает число прозрачных вершин
func (b *MeshBuffers) TransparentCount() int { return len(b.Transparent) }

// Slot: элемент пула, владеющий GPU-буферами одного чанка.
// Задний буфер пишется только внутри Rebuild; передний читает поток рендера
// под мьютексом слота после сигнала ReadyMesh.
type Slot struct {
	Index   int
	Handles GPUHandles

	// buildMu держит задний буфер за одним строителем от Reset до Swap.
	// Порядок блокировок: buildMu, затем mu.
	buildMu sync.Mutex

	mu         sync.Mutex
	front      *MeshBuffers
	back       *MeshBuffers
	claimed    vec.Vec2
	hasClaim   bool
	generation uint64
}

func newSlot(index int, handles GPUHandles) *Slot {
	return &Slot{
		Index:   index,
		Handles: handles,
		front:   &MeshBuffers{},
		back:    &MeshBuffers{},
	}
}

// Claim возвращает текущую позицию слота, поколение и признак занятости
func (s *Slot) Claim() (vec.Vec2, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimed, s.generation, s.hasClaim
}

// Generation возвращает текущее поколение слота
func (s *Slot) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Rebuild заполняет задний буфер через fill и делает его передним.
// Параллельные вызовы для одного слота выполняются по очереди,
// поэтому несколько воркеров не пишут в один буфер одновременно.
func (s *Slot) Rebuild(fill func(back *MeshBuffers)) (solid, transparent int) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	fill(s.back)
	solid, transparent = s.back.SolidCount(), s.back.TransparentCount()

	s.mu.Lock()
	s.front, s.back = s.back, s.front
	s.mu.Unlock()
	return solid, transparent
}

// WithFront вызывает fn с передним буфером под мьютексом слота
func (s *Slot) WithFront(fn func(pos vec.Vec2, generation uint64, buf *MeshBuffers)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.claimed, s.generation, s.front)
}

// assign переназначает слот; вызывается под мьютексом слота
func (s *Slot) assign(pos vec.Vec2) {
	if !s.hasClaim || s.claimed != pos {
		s.generation++
	}
	s.claimed = pos
	s.hasClaim = true
}

// unassign освобождает слот; вызывается под мьютексом слота
func (s *Slot) unassign() {
	if s.hasClaim {
		s.generation++
	}
	s.hasClaim = false
	s.claimed = vec.Vec2{}
	s.front.Reset()
}
