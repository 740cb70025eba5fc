package world

import (
	"sort"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/chunkpool"
	"github.com/go-gl/mathgl/mgl32"
)

// Uploader загружает CPU-буферы слота в его постоянные GPU-буферы.
// Вызывается только из потока рендера под мьютексом слота.
type Uploader interface {
	Upload(slot int, handles chunkpool.GPUHandles, buf *chunkpool.MeshBuffers) error
}

// RenderEntry: видимое рендеру состояние слота
type RenderEntry struct {
	Slot             int
	Position         vec.Vec2
	Origin           mgl32.Vec3 // Смещение чанка для uniform позиции
	SolidCount       int
	TransparentCount int
	Handles          chunkpool.GPUHandles
	Used             bool
	Generation       uint64
}

// ChunkOrigin возвращает мировое смещение чанка для шейдера
func ChunkOrigin(pos vec.Vec2) mgl32.Vec3 {
	o := pos.Origin()
	return mgl32.Vec3{float32(o.X), float32(o.Y), float32(o.Z)}
}

// DrainReady забирает до limit готовых мешей (сначала пользовательские),
// отбрасывает устаревшие и загружает остальные. limit <= 0 - без ограничения.
func (e *Engine) DrainReady(up Uploader, limit int) (uploaded, discarded int) {
	pool := e.Pool()

	for limit <= 0 || uploaded+discarded < limit {
		ready, ok := e.handoff.Pop()
		if !ok {
			break
		}

		s := pool.Slot(ready.Slot)
		if s == nil {
			discarded++
			continue
		}

		var (
			entry RenderEntry
			stale bool
			err   error
		)
		s.WithFront(func(pos vec.Vec2, generation uint64, buf *chunkpool.MeshBuffers) {
			if generation != ready.Generation || pos != ready.Position {
				stale = true
				return
			}
			if up != nil {
				err = up.Upload(s.Index, s.Handles, buf)
			}
			entry = RenderEntry{
				Slot:             s.Index,
				Position:         pos,
				Origin:           ChunkOrigin(pos),
				SolidCount:       buf.SolidCount(),
				TransparentCount: buf.TransparentCount(),
				Handles:          s.Handles,
				Used:             true,
				Generation:       generation,
			}
		})

		if stale {
			discarded++
			if e.metrics != nil {
				e.metrics.staleDiscards.Inc()
			}
			continue
		}
		if err != nil {
			e.logger.Error("Ошибка загрузки слота %d: %v", ready.Slot, err)
			discarded++
			continue
		}

		e.renderMu.Lock()
		e.render[s.Index] = entry
		e.renderMu.Unlock()
		uploaded++
		if e.metrics != nil {
			e.metrics.uploads.Inc()
		}
	}
	return uploaded, discarded
}

// RenderTable возвращает записи всех слотов, упорядоченные по индексу.
// Запись, загруженная для прошлого назначения слота, помечается неиспользуемой.
func (e *Engine) RenderTable() []RenderEntry {
	pool := e.Pool()

	e.renderMu.RLock()
	defer e.renderMu.RUnlock()

	result := make([]RenderEntry, 0, pool.Len())
	for _, s := range pool.Slots() {
		entry, ok := e.render[s.Index]
		if !ok {
			result = append(result, RenderEntry{Slot: s.Index, Handles: s.Handles})
			continue
		}
		if entry.Generation != s.Generation() {
			entry.Used = false
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slot < result[j].Slot })
	return result
}
