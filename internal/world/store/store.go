package store

import (
	"sync"

	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// Terrain: источник натуральных блоков для координат без явных правок
type Terrain interface {
	Block(c vec.Vec3) block.Value
}

// Resolve применяет приоритет слоёв: правка игрока, затем правка генерации,
// затем рельеф. Рельеф вычисляется только если явных правок нет.
func Resolve(userVal block.Value, hasUser bool, genVal block.Value, hasGen bool, natural func() block.Value) (block.Value, Layer) {
	if hasUser {
		return userVal, LayerUser
	}
	if hasGen {
		return genVal, LayerGenerated
	}
	if natural == nil {
		return block.Air, LayerTerrain
	}
	return natural(), LayerTerrain
}

// editLayer: карта явных правок со своим мьютексом
type editLayer struct {
	mu sync.RWMutex
	m  map[vec.Vec3]block.Value
}

func newEditLayer() editLayer {
	return editLayer{m: make(map[vec.Vec3]block.Value)}
}

func (l *editLayer) get(c vec.Vec3) (block.Value, bool) {
	l.mu.RLock()
	v, ok := l.m[c]
	l.mu.RUnlock()
	return v, ok
}

func (l *editLayer) set(c vec.Vec3, v block.Value) {
	l.mu.Lock()
	l.m[c] = v
	l.mu.Unlock()
}

func (l *editLayer) snapshot() map[vec.Vec3]block.Value {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[vec.Vec3]block.Value, len(l.m))
	for k, v := range l.m {
		result[k] = v
	}
	return result
}

func (l *editLayer) replace(m map[vec.Vec3]block.Value) {
	fresh := make(map[vec.Vec3]block.Value, len(m))
	for k, v := range m {
		fresh[k] = v
	}
	l.mu.Lock()
	l.m = fresh
	l.mu.Unlock()
}

func (l *editLayer) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.m)
}

// Store: трёхслойное хранилище блоков.
// Читать и писать можно из разных горутин без внешней блокировки.
type Store struct {
	user      editLayer
	generated editLayer

	terrainMu sync.RWMutex
	terrain   Terrain
}

// New создаёт пустое хранилище поверх указанного рельефа
func New(terrain Terrain) *Store {
	return &Store{
		user:      newEditLayer(),
		generated: newEditLayer(),
		terrain:   terrain,
	}
}

// Get возвращает блок в координате. Никогда не завершается ошибкой.
func (s *Store) Get(c vec.Vec3) block.Value {
	v, _ := s.Lookup(c)
	return v
}

// Lookup возвращает блок вместе со слоем, из которого он получен
func (s *Store) Lookup(c vec.Vec3) (block.Value, Layer) {
	userVal, hasUser := s.user.get(c)
	if hasUser {
		return userVal, LayerUser
	}
	genVal, hasGen := s.generated.get(c)
	return Resolve(userVal, hasUser, genVal, hasGen, func() block.Value {
		return s.Natural(c)
	})
}

// Natural возвращает значение рельефа, игнорируя правки
func (s *Store) Natural(c vec.Vec3) block.Value {
	s.terrainMu.RLock()
	terrain := s.terrain
	s.terrainMu.RUnlock()

	if terrain == nil {
		return block.Air
	}
	return terrain.Block(c)
}

// Set записывает значение в слой правок игрока (isUser) или генерации.
// Рельеф при этом не вычисляется.
func (s *Store) Set(c vec.Vec3, v block.Value, isUser bool) {
	if isUser {
		s.user.set(c, v)
		return
	}
	s.generated.set(c, v)
}

// HasExplicit сообщает, есть ли в координате явная правка любого слоя
func (s *Store) HasExplicit(c vec.Vec3) bool {
	if _, ok := s.user.get(c); ok {
		return true
	}
	_, ok := s.generated.get(c)
	return ok
}

// UserEdits возвращает копию слоя правок игрока
func (s *Store) UserEdits() map[vec.Vec3]block.Value {
	return s.user.snapshot()
}

// ReplaceUserEdits заменяет слой правок игрока копией переданной карты
func (s *Store) ReplaceUserEdits(edits map[vec.Vec3]block.Value) {
	s.user.replace(edits)
}

// Counts возвращает число правок игрока и генерации
func (s *Store) Counts() (user, generated int) {
	return s.user.size(), s.generated.size()
}

// SetTerrain заменяет функцию рельефа (новый сид или тип планеты)
func (s *Store) SetTerrain(terrain Terrain) {
	s.terrainMu.Lock()
	s.terrain = terrain
	s.terrainMu.Unlock()
}

// Clear удаляет обе карты правок
func (s *Store) Clear() {
	s.user.replace(nil)
	s.generated.replace(nil)
}
