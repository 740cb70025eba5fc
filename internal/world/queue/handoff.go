package queue

import "github.com/annel0/voxel-engine/internal/vec"

// ReadyMesh: сигнал о том, что CPU-буферы слота готовы к загрузке на GPU.
// Это единственный межпоточный сигнал, разрешающий читать буферы.
type ReadyMesh struct {
	Slot             int
	Position         vec.Vec2
	Generation       uint64
	SolidCount       int
	TransparentCount int
}

// Handoff: очереди готовых мешей для потока рендера
type Handoff struct {
	User       *Queue[ReadyMesh]
	Background *Queue[ReadyMesh]
}

// NewHandoff создаёт пару пустых очередей
func NewHandoff() *Handoff {
	return &Handoff{
		User:       NewQueue[ReadyMesh](),
		Background: NewQueue[ReadyMesh](),
	}
}

// Push отправляет готовый меш в пользовательскую или фоновую очередь
func (h *Handoff) Push(m ReadyMesh, userPower bool) {
	if userPower {
		h.User.TryPush(m)
		return
	}
	h.Background.TryPush(m)
}

// Pop извлекает готовый меш, отдавая предпочтение пользовательской очереди
func (h *Handoff) Pop() (ReadyMesh, bool) {
	if m, ok := h.User.TryPop(); ok {
		return m, true
	}
	return h.Background.TryPop()
}

// Clear очищает обе очереди
func (h *Handoff) Clear() {
	h.User.Drain()
	h.Background.Drain()
}
