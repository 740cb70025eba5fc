package world

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annel0/voxel-engine/internal/eventbus"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/chunkpool"
	"github.com/annel0/voxel-engine/internal/world/mesher"
	"github.com/annel0/voxel-engine/internal/world/queue"
	"github.com/annel0/voxel-engine/internal/world/store"
	"github.com/annel0/voxel-engine/internal/world/structure"
	"github.com/annel0/voxel-engine/internal/world/terrain"
)

// EditJournal: журнал правок игрока между сохранениями файла мира
type EditJournal interface {
	Record(c vec.Vec3, v block.Value) error
	Replay(fn func(c vec.Vec3, v block.Value)) (int, error)
	Reset() error
}

// Options: параметры создания движка
type Options struct {
	Radius    int                       // Радиус обзора в чанках
	Seed      int64                     // Сид мира
	Planet    terrain.PlanetType        // Тип планеты
	IdleSleep time.Duration             // Пауза воркера при пустых очередях
	Allocator chunkpool.HandleAllocator // Выдача GPU-хэндлов; nil - последовательные номера
	Library   *structure.Library        // Префабы; nil - встроенные
	Journal   EditJournal               // Журнал правок; nil - без журнала
	Bus       eventbus.EventBus         // Шина событий; nil - глобальная
	Metrics   *Metrics                  // Метрики; nil - без метрик
}

// Engine: фасад движка чанков: хранилище блоков, генерация, пул слотов,
// очереди перестройки и мешер.
type Engine struct {
	// mu защищает идентичность мира (сид, генератор, пул), которую меняет только Reset
	mu sync.RWMutex

	seed   int64
	planet terrain.PlanetType
	radius int

	store   *store.Store
	gen     *terrain.Generator
	lib     *structure.Library
	planner *structure.Planner
	stamper *structure.Stamper
	pool    *chunkpool.Pool
	router  *queue.Router
	handoff *queue.Handoff
	mesher  *mesher.Mesher

	alloc     chunkpool.HandleAllocator
	idleSleep time.Duration
	journal   EditJournal
	bus       eventbus.EventBus
	metrics   *Metrics
	logger    *logging.Logger

	genMu     sync.Mutex
	generated map[vec.Vec2]struct{} // чанки, в которые уже отпечатаны структуры

	renderMu sync.RWMutex
	render   map[int]RenderEntry

	viewerMu  sync.RWMutex
	viewer    vec.Vec2
	hasViewer bool
}

// NewEngine создаёт движок с пустым слоем правок
func NewEngine(opts Options) *Engine {
	if opts.IdleSleep <= 0 {
		opts.IdleSleep = 2 * time.Millisecond
	}
	if opts.Allocator == nil {
		opts.Allocator = &chunkpool.SequentialAllocator{}
	}
	if opts.Library == nil {
		opts.Library = structure.NewLibrary()
	}

	e := &Engine{
		router:    queue.NewRouter(),
		handoff:   queue.NewHandoff(),
		lib:       opts.Library,
		alloc:     opts.Allocator,
		idleSleep: opts.IdleSleep,
		journal:   opts.Journal,
		bus:       opts.Bus,
		metrics:   opts.Metrics,
		logger:    logging.GetEngineLogger(),
		store:     store.New(nil),
	}
	e.reinit(opts.Radius, opts.Seed, opts.Planet)
	return e
}

// reinit строит мир заново; вызывается под e.mu или до публикации движка
func (e *Engine) reinit(radius int, seed int64, planet terrain.PlanetType) {
	radius = chunkpool.ClampRadius(radius)

	e.seed = seed
	e.gen = terrain.New(seed, planet)
	e.planet = e.gen.Planet

	e.store.Clear()
	e.store.SetTerrain(e.gen)
	e.stamper = structure.NewStamper(e.store, e.requeueBackground)
	e.planner = structure.NewPlanner(seed, e.planet, e.gen, e.lib)

	if e.pool == nil || e.radius != radius {
		e.pool = chunkpool.New(radius, e.alloc)
	} else {
		e.pool.Reset()
	}
	e.radius = radius

	e.router.Clear()
	e.handoff.Clear()

	e.mesher = mesher.New(e.store, e.pool, e.handoff)
	if e.metrics != nil {
		e.mesher.SetObserver(e.metrics)
	}

	e.genMu.Lock()
	e.generated = make(map[vec.Vec2]struct{})
	e.genMu.Unlock()

	e.renderMu.Lock()
	e.render = make(map[int]RenderEntry)
	e.renderMu.Unlock()

	e.viewerMu.Lock()
	e.hasViewer = false
	e.viewer = vec.Vec2{}
	e.viewerMu.Unlock()
}

// Reset полностью переинициализирует мир. Вызывать только при остановленном воркере.
// Журнал правок очищается: правки старого мира к новому не относятся.
func (e *Engine) Reset(radius int, seed int64, planet terrain.PlanetType) {
	e.reset(radius, seed, planet, true)
}

func (e *Engine) reset(radius int, seed int64, planet terrain.PlanetType, dropJournal bool) {
	e.mu.Lock()
	e.reinit(radius, seed, planet)
	e.mu.Unlock()

	if dropJournal && e.journal != nil {
		if err := e.journal.Reset(); err != nil {
			e.logger.Error("Не удалось очистить журнал правок: %v", err)
		}
	}

	e.logger.Info("🌍 Мир переинициализирован: сид=%d планета=%s радиус=%d слотов=%d",
		seed, e.Planet(), radius, chunkpool.Size(radius))
	e.publish(eventbus.NewEnvelope(eventbus.EventWorldReset, "engine", eventbus.PriorityNormal, nil))
}

// Seed возвращает сид текущего мира
func (e *Engine) Seed() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.seed
}

// Planet возвращает тип планеты текущего мира
func (e *Engine) Planet() terrain.PlanetType {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.planet
}

// Radius возвращает радиус обзора
func (e *Engine) Radius() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.radius
}

// Pool возвращает пул слотов
func (e *Engine) Pool() *chunkpool.Pool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pool
}

// Router возвращает маршрутизатор заявок
func (e *Engine) Router() *queue.Router { return e.router }

// Handoff возвращает очереди готовых мешей
func (e *Engine) Handoff() *queue.Handoff { return e.handoff }

// Library возвращает библиотеку префабов
func (e *Engine) Library() *structure.Library { return e.lib }

// SetBlock записывает блок. Правки вне диапазона высот тоже сохраняются
// и читаются обратно, но в меш не попадают.
// Правки игрока попадают в журнал и публикуются в шину событий.
func (e *Engine) SetBlock(c vec.Vec3, v block.Value, isUser bool) {
	e.store.Set(c, v, isUser)
	if !isUser {
		return
	}

	if e.metrics != nil {
		e.metrics.userEdits.Inc()
	}
	if e.journal != nil {
		if err := e.journal.Record(c, v); err != nil {
			e.logger.Warn("Не удалось записать правку (%d,%d,%d) в журнал: %v", c.X, c.Y, c.Z, err)
		}
	}

	ev, err := eventbus.NewBlockEdited("engine", c.X, c.Y, c.Z, uint32(v))
	if err != nil {
		e.logger.Warn("Не удалось собрать событие правки: %v", err)
		return
	}
	e.publish(ev)
}

// AffectedChunks возвращает чанк координаты и, если affectNeighbors, соседние
// чанки, меш которых зависит от этого блока (грани и затенение углов).
func AffectedChunks(c vec.Vec3, affectNeighbors bool) []vec.Vec2 {
	cc := c.ToChunkCoords()
	result := []vec.Vec2{cc}
	if !affectNeighbors {
		return result
	}

	local := c.LocalInChunk()
	dxs, dzs := []int{0}, []int{0}
	switch local.X {
	case 0:
		dxs = append(dxs, -1)
	case vec.ChunkWidth - 1:
		dxs = append(dxs, 1)
	}
	switch local.Z {
	case 0:
		dzs = append(dzs, -1)
	case vec.ChunkWidth - 1:
		dzs = append(dzs, 1)
	}

	for _, dx := range dxs {
		for _, dz := range dzs {
			if dx == 0 && dz == 0 {
				continue
			}
			result = append(result, vec.Vec2{X: cc.X + dx, Z: cc.Z + dz})
		}
	}
	return result
}

// SetBlockAndQueueRerender записывает блок и ставит перестройку затронутых
// занятых чанков: правки игрока с пользовательским приоритетом, прочие с приоритетом генерации.
func (e *Engine) SetBlockAndQueueRerender(c vec.Vec3, v block.Value, affectNeighbors, isUser bool) {
	if !c.InHeightRange() {
		return
	}
	e.SetBlock(c, v, isUser)

	prio := queue.PriorityGeneration
	if isUser {
		prio = queue.PriorityUser
	}

	pool := e.Pool()
	for _, cc := range AffectedChunks(c, affectNeighbors) {
		if slot, ok := pool.Registry.Lookup(cc); ok {
			e.router.Push(queue.Ticket{Slot: slot, Priority: prio})
		}
	}
}

// BlockAt возвращает итоговое значение блока
func (e *Engine) BlockAt(c vec.Vec3) block.Value {
	return e.store.Get(c)
}

// LookupBlock возвращает значение блока и слой, из которого оно взято
func (e *Engine) LookupBlock(c vec.Vec3) (block.Value, store.Layer) {
	return e.store.Lookup(c)
}

// Collides сообщает, твёрд ли блок для столкновений
func (e *Engine) Collides(c vec.Vec3) bool {
	v := e.BlockAt(c)
	return !v.IsAir() && block.IsSolid(v)
}

// populate печатает структуры чанка один раз за мир и возвращает затронутые чанки
func (e *Engine) populate(cc vec.Vec2) (map[vec.Vec2]struct{}, int, bool) {
	e.genMu.Lock()
	if _, done := e.generated[cc]; done {
		e.genMu.Unlock()
		return nil, 0, false
	}
	e.generated[cc] = struct{}{}
	e.genMu.Unlock()

	e.mu.RLock()
	planner, stamper := e.planner, e.stamper
	e.mu.RUnlock()

	implicated := make(map[vec.Vec2]struct{})
	placements := planner.Plan(cc)
	for _, p := range placements {
		stamper.Stamp(p.Origin, p.Prefab, implicated)
	}

	if e.metrics != nil {
		e.metrics.generatedChunks.Inc()
	}
	return implicated, len(placements), true
}

// GenerateChunk отдельно заполняет чанк структурами (например, когда моб
// забрёл в несгенерированную область). Повторный вызов ничего не делает.
// Затронутые занятые чанки получают фоновую перестройку.
func (e *Engine) GenerateChunk(cc vec.Vec2) int {
	implicated, placed, fresh := e.populate(cc)
	if !fresh {
		return 0
	}

	for chunk := range implicated {
		e.requeueBackground(chunk)
	}

	if ev, err := eventbus.NewChunkGenerated("engine", cc.X, cc.Z, placed); err == nil {
		e.publish(ev)
	}
	e.logger.Debug("Чанк (%d,%d): структур %d, затронуто чанков %d", cc.X, cc.Z, placed, len(implicated))
	return placed
}

// requeueBackground ставит фоновую перестройку слоту, занимающему чанк.
// Незанятые чанки пропускаются: их меш построится при занятии.
func (e *Engine) requeueBackground(chunk vec.Vec2) {
	if slot, ok := e.Pool().Registry.Lookup(chunk); ok {
		e.router.Push(queue.Ticket{Slot: slot, Priority: queue.PriorityBackground})
	}
}

// ErrUnknownPrefab возвращается PlacePrefab для имени, которого нет в библиотеке
var ErrUnknownPrefab = errors.New("неизвестный префаб")

// PlacePrefab печатает префаб в точке origin во время работы мира.
// Затронутые занятые чанки сразу получают фоновую перестройку.
// Возвращает число записанных блоков.
func (e *Engine) PlacePrefab(origin vec.Vec3, name string) (int, error) {
	p, ok := e.lib.Get(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPrefab, name)
	}

	e.mu.RLock()
	stamper := e.stamper
	e.mu.RUnlock()

	written := stamper.Stamp(origin, p, nil)
	if ev, err := eventbus.NewPrefabPlaced("engine", name, origin.X, origin.Y, origin.Z, written); err == nil {
		e.publish(ev)
	}
	e.logger.Debug("Префаб %s в (%d,%d,%d): блоков %d", name, origin.X, origin.Y, origin.Z, written)
	return written, nil
}

// IsGenerated сообщает, были ли в чанк уже отпечатаны структуры
func (e *Engine) IsGenerated(cc vec.Vec2) bool {
	e.genMu.Lock()
	defer e.genMu.Unlock()
	_, ok := e.generated[cc]
	return ok
}

// MoveAndRebuild переназначает слот на позицию. Если позицию уже занимает
// другой слот, вместо переназначения перестраивается он. Возвращает индекс
// слота, получившего заявку.
func (e *Engine) MoveAndRebuild(slotIndex int, pos vec.Vec2) (int, bool) {
	pool := e.Pool()
	s := pool.Slot(slotIndex)
	if s == nil {
		return -1, false
	}

	owner, ok := pool.Registry.Claim(s, pos)
	if !ok {
		e.router.Push(queue.Ticket{Slot: owner, Priority: queue.PriorityGeneration})
		return owner, true
	}

	e.renderMu.Lock()
	delete(e.render, slotIndex)
	e.renderMu.Unlock()

	implicated, _, _ := e.populate(pos)
	for chunk := range implicated {
		if chunk == pos {
			continue
		}
		if other, ok := pool.Registry.Lookup(chunk); ok {
			e.router.Push(queue.Ticket{Slot: other, Priority: queue.PriorityBackground})
		}
	}

	e.router.Push(queue.Ticket{Slot: slotIndex, Priority: queue.PriorityGeneration})
	return slotIndex, true
}

// RequestRebuild ставит заявку на перестройку слота
func (e *Engine) RequestRebuild(slotIndex int, prio queue.Priority) {
	if e.Pool().Slot(slotIndex) == nil {
		return
	}
	e.router.Push(queue.Ticket{Slot: slotIndex, Priority: prio})
}

// Viewer возвращает последний центр обзора
func (e *Engine) Viewer() (vec.Vec2, bool) {
	e.viewerMu.RLock()
	defer e.viewerMu.RUnlock()
	return e.viewer, e.hasViewer
}

// UpdateViewer занимает квадрат радиуса вокруг center, начиная с ближайших
// чанков. Свободных слотов не хватает - освобождаются самые дальние слоты
// за пределами радиуса. Возвращает число переназначенных слотов.
func (e *Engine) UpdateViewer(center vec.Vec2) int {
	e.viewerMu.Lock()
	e.viewer = center
	e.hasViewer = true
	e.viewerMu.Unlock()

	pool := e.Pool()
	radius := pool.Radius

	var missing []vec.Vec2
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			pos := vec.Vec2{X: center.X + dx, Z: center.Z + dz}
			if _, ok := pool.Registry.Lookup(pos); !ok {
				missing = append(missing, pos)
			}
		}
	}
	if len(missing) == 0 {
		return 0
	}
	sort.Slice(missing, func(i, j int) bool {
		a, b := missing[i], missing[j]
		da, db := a.DistanceTo(center), b.DistanceTo(center)
		if da != db {
			return da < db
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})

	free := pool.Free()
	if len(free) < len(missing) {
		type far struct {
			slot int
			dist int
		}
		var evictable []far
		for _, s := range pool.Slots() {
			pos, _, claimed := s.Claim()
			if claimed && pos.ChebyshevTo(center) > radius {
				evictable = append(evictable, far{slot: s.Index, dist: pos.ChebyshevTo(center)})
			}
		}
		sort.Slice(evictable, func(i, j int) bool {
			if evictable[i].dist != evictable[j].dist {
				return evictable[i].dist > evictable[j].dist
			}
			return evictable[i].slot < evictable[j].slot
		})
		for _, f := range evictable {
			free = append(free, f.slot)
		}
	}

	moved := 0
	for i, pos := range missing {
		if i >= len(free) {
			e.logger.Warn("UpdateViewer: не хватило слотов для %d чанков", len(missing)-i)
			break
		}
		if _, ok := e.MoveAndRebuild(free[i], pos); ok {
			moved++
		}
	}
	return moved
}

// publish отправляет событие в шину движка или глобальную шину
func (e *Engine) publish(ev *eventbus.Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var err error
	if e.bus != nil {
		err = e.bus.Publish(ctx, ev)
	} else {
		err = eventbus.Publish(ctx, ev)
	}
	if err != nil {
		e.logger.Debug("Событие %s не опубликовано: %v", ev.EventType, err)
	}
}
