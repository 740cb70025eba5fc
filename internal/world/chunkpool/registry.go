package chunkpool

import (
	"sync"

	"github.com/annel0/voxel-engine/internal/vec"
)

// Registry: реестр занятости: позиция чанка -> индекс слота.
// Порядок блокировок всегда: реестр, затем слот.
type Registry struct {
	mu     sync.RWMutex
	owners map[vec.Vec2]int
}

// NewRegistry создаёт пустой реестр
func NewRegistry() *Registry {
	return &Registry{owners: make(map[vec.Vec2]int)}
}

// Claim назначает слоту позицию. Реестр и сам слот меняются вместе, поэтому
// читатель никогда не увидит позицию, указывающую на слот с другой позицией.
// Если позиция занята другим слотом, назначение отклоняется и возвращается владелец.
func (r *Registry) Claim(s *Slot, pos vec.Vec2) (owner int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, taken := r.owners[pos]; taken && existing != s.Index {
		return existing, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasClaim && s.claimed != pos {
		if r.owners[s.claimed] == s.Index {
			delete(r.owners, s.claimed)
		}
	}
	s.assign(pos)
	r.owners[pos] = s.Index
	return s.Index, true
}

// Release освобождает слот и удаляет его позицию из реестра
func (r *Registry) Release(s *Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasClaim {
		if owner, ok := r.owners[s.claimed]; ok && owner == s.Index {
			delete(r.owners, s.claimed)
		}
	}
	s.unassign()
}

// Lookup возвращает слот, занимающий позицию
func (r *Registry) Lookup(pos vec.Vec2) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.owners[pos]
	return idx, ok
}

// EnsureRegistered регистрирует позицию слота, если её нет в реестре и слот
// всё ещё занимает её в том же поколении. Возвращает true, если запись добавлена.
func (r *Registry) EnsureRegistered(s *Slot, pos vec.Vec2, generation uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[pos]; ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasClaim || s.claimed != pos || s.generation != generation {
		return false
	}
	r.owners[pos] = s.Index
	return true
}

// Len возвращает число занятых позиций
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}

// Snapshot возвращает копию реестра
func (r *Registry) Snapshot() map[vec.Vec2]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[vec.Vec2]int, len(r.owners))
	for k, v := range r.owners {
		result[k] = v
	}
	return result
}

func (r *Registry) clear() {
	r.mu.Lock()
	r.owners = make(map[vec.Vec2]int)
	r.mu.Unlock()
}
