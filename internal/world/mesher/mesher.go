package mesher

import (
	"context"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/chunkpool"
	"github.com/annel0/voxel-engine/internal/world/queue"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BlockSource: чтение блоков (обычно store.Store)
type BlockSource interface {
	Get(c vec.Vec3) block.Value
}

// Observer получает статистику каждой перестройки
type Observer interface {
	ObserveRebuild(userPower bool, elapsed time.Duration, solid, transparent int)
}

// Mesher строит меши чанков в задние буферы слотов
type Mesher struct {
	src      BlockSource
	pool     *chunkpool.Pool
	handoff  *queue.Handoff
	observer Observer
	tracer   trace.Tracer
	logger   *logging.Logger
}

// New создаёт мешер
func New(src BlockSource, pool *chunkpool.Pool, handoff *queue.Handoff) *Mesher {
	return &Mesher{
		src:     src,
		pool:    pool,
		handoff: handoff,
		tracer:  otel.Tracer("voxel-engine/mesher"),
		logger:  logging.GetMesherLogger(),
	}
}

// SetObserver подключает сбор метрик
func (m *Mesher) SetObserver(o Observer) {
	m.observer = o
}

// memo кэширует блоки в пределах одной перестройки
type memo struct {
	src   BlockSource
	cache map[vec.Vec3]block.Value
}

func (c *memo) get(p vec.Vec3) block.Value {
	if v, ok := c.cache[p]; ok {
		return v
	}
	var v block.Value
	if p.InHeightRange() {
		v = c.src.Get(p)
	}
	c.cache[p] = v
	return v
}

// Build строит меш чанка pos в buf. Результат зависит только от содержимого src.
func Build(src BlockSource, pos vec.Vec2, buf *chunkpool.MeshBuffers) {
	buf.Reset()

	origin := pos.Origin()
	cache := &memo{src: src, cache: make(map[vec.Vec3]block.Value, vec.ChunkWidth*vec.ChunkWidth*vec.ChunkHeight)}
	// tops: высший непустой слой, уже пройденный в колонке (i, k)
	tops := make(map[[2]int]int, vec.ChunkWidth*vec.ChunkWidth)

	for j := vec.ChunkHeight - 1; j >= 0; j-- {
		for i := 0; i < vec.ChunkWidth; i++ {
			for k := 0; k < vec.ChunkWidth; k++ {
				world := vec.Vec3{X: origin.X + i, Y: j, Z: origin.Z + k}
				self := cache.get(world)
				if self.IsAir() {
					continue
				}

				id := self.ID()
				transparent := block.IsTransparent(id)
				water := id == block.WaterBlockID

				for f := Face(0); f < faceCount; f++ {
					n := faceNormals[f]
					if !emitFace(self, cache.get(world.Add(n))) {
						continue
					}

					top, hasTop := tops[[2]int{i + n.X, k + n.Z}]
					shadowed := hasTop && top > j+n.Y
					tex := block.TextureFor(id, f == FacePosY, f == FaceNegY)

					for _, corner := range quadCorners {
						occluding := 0
						for _, o := range occluders(f, corner) {
							if !cache.get(world.Add(o)).IsAir() {
								occluding++
							}
						}

						word, aux := Pack(Vertex{
							X:          uint8(i),
							Y:          uint8(j),
							Z:          uint8(k),
							Corner:     corner,
							Brightness: Brightness(f, corner, occluding, shadowed),
							Face:       f,
							U:          tex.U,
							V:          tex.V,
							Water:      water,
						})
						if transparent {
							buf.Transparent = append(buf.Transparent, word)
							buf.TransparentAux = append(buf.TransparentAux, aux)
						} else {
							buf.Solid = append(buf.Solid, word)
							buf.SolidAux = append(buf.SolidAux, aux)
						}
					}
				}

				if _, ok := tops[[2]int{i, k}]; !ok {
					tops[[2]int{i, k}] = j
				}
			}
		}
	}
}

// Rebuild перестраивает меш слота и отправляет ReadyMesh в очередь передачи.
// userPower выбирает пользовательскую очередь вместо фоновой.
// Незанятый слот пропускается.
func (m *Mesher) Rebuild(ctx context.Context, slotIndex int, userPower bool) (queue.ReadyMesh, bool) {
	s := m.pool.Slot(slotIndex)
	if s == nil {
		m.logger.Warn("Rebuild: слот %d вне пула", slotIndex)
		return queue.ReadyMesh{}, false
	}

	pos, generation, claimed := s.Claim()
	if !claimed {
		return queue.ReadyMesh{}, false
	}

	_, span := m.tracer.Start(ctx, "mesher.Rebuild", trace.WithAttributes(
		attribute.Int("slot", slotIndex),
		attribute.Int("chunk.x", pos.X),
		attribute.Int("chunk.z", pos.Z),
		attribute.Bool("user_power", userPower),
	))
	defer span.End()

	start := time.Now()
	solid, transparent := s.Rebuild(func(back *chunkpool.MeshBuffers) {
		Build(m.src, pos, back)
	})
	elapsed := time.Since(start)

	span.SetAttributes(attribute.Int("vertices.solid", solid), attribute.Int("vertices.transparent", transparent))

	ready := queue.ReadyMesh{
		Slot:             slotIndex,
		Position:         pos,
		Generation:       generation,
		SolidCount:       solid,
		TransparentCount: transparent,
	}
	m.handoff.Push(ready, userPower)
	m.pool.Registry.EnsureRegistered(s, pos, generation)

	if m.observer != nil {
		m.observer.ObserveRebuild(userPower, elapsed, solid, transparent)
	}
	logging.LogChunkRebuild(slotIndex, pos.X, pos.Z, solid, transparent, elapsed)
	return ready, true
}
