package structure

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/annel0/voxel-engine/internal/world/block"
	"gopkg.in/yaml.v3"
)

// Library: именованный набор префабов
type Library struct {
	mu      sync.RWMutex
	prefabs map[string]*Prefab
}

// NewLibrary создаёт библиотеку со встроенными префабами
func NewLibrary() *Library {
	lib := &Library{prefabs: make(map[string]*Prefab)}
	for _, p := range []*Prefab{
		tree("oak", block.LogBlockID, block.LeavesBlockID, 5, 2),
		pine(),
		boulder("boulder", block.CobblestoneBlockID),
		boulder("basalt_boulder", block.BasaltBlockID),
		spire(),
	} {
		lib.prefabs[p.Name] = p
	}
	return lib
}

// Add регистрирует префаб, заменяя одноимённый
func (l *Library) Add(p *Prefab) error {
	if err := p.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	l.prefabs[p.Name] = p
	l.mu.Unlock()
	return nil
}

// Get возвращает префаб по имени
func (l *Library) Get(name string) (*Prefab, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.prefabs[name]
	return p, ok
}

// Names возвращает отсортированный список имён
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.prefabs))
	for name := range l.prefabs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParsePrefab разбирает YAML-описание префаба
func ParsePrefab(data []byte) (*Prefab, error) {
	var p Prefab
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("ошибка разбора префаба: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadLibrary создаёт библиотеку и дополняет её файлами *.yaml / *.yml из каталога.
// Пустой путь или отсутствующий каталог дают только встроенные префабы.
func LoadLibrary(dir string) (*Library, error) {
	lib := NewLibrary()
	if dir == "" {
		return lib, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("не удалось прочитать каталог префабов %s: %w", dir, err)
	}

	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("не удалось прочитать %s: %w", path, err)
		}
		p, err := ParsePrefab(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		lib.prefabs[p.Name] = p
	}
	return lib, nil
}
