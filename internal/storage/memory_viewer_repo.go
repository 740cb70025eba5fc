package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/annel0/voxel-engine/internal/vec"
)

// MemoryViewerRepo реализует ViewerRepo в памяти.
// Используется по умолчанию и в тестах; данные теряются при перезапуске.
type MemoryViewerRepo struct {
	mu   sync.RWMutex
	data map[string]vec.Vec2
}

// NewMemoryViewerRepo создает новый репозиторий наблюдателей в памяти
func NewMemoryViewerRepo() *MemoryViewerRepo {
	return &MemoryViewerRepo{
		data: make(map[string]vec.Vec2),
	}
}

// Save сохраняет опорный чанк в памяти
func (r *MemoryViewerRepo) Save(ctx context.Context, viewerID string, chunk vec.Vec2) error {
	if err := validateViewerID(viewerID); err != nil {
		return err
	}

	// Проверяем контекст на отмену
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[viewerID] = chunk
	return nil
}

// Load загружает опорный чанк из памяти
func (r *MemoryViewerRepo) Load(ctx context.Context, viewerID string) (vec.Vec2, bool, error) {
	if err := validateViewerID(viewerID); err != nil {
		return vec.Vec2{}, false, err
	}

	select {
	case <-ctx.Done():
		return vec.Vec2{}, false, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	chunk, exists := r.data[viewerID]
	return chunk, exists, nil
}

// Delete удаляет запись наблюдателя
func (r *MemoryViewerRepo) Delete(ctx context.Context, viewerID string) error {
	if err := validateViewerID(viewerID); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[viewerID]; !exists {
		return fmt.Errorf("%w: %s", ErrViewerNotFound, viewerID)
	}

	delete(r.data, viewerID)
	return nil
}

// BatchSave сохраняет несколько записей. Все идентификаторы проверяются до записи.
func (r *MemoryViewerRepo) BatchSave(ctx context.Context, anchors map[string]vec.Vec2) error {
	if len(anchors) == 0 {
		return nil // Нечего сохранять
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	for viewerID := range anchors {
		if err := validateViewerID(viewerID); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for viewerID, chunk := range anchors {
		r.data[viewerID] = chunk
	}
	return nil
}

// Count возвращает количество записей
func (r *MemoryViewerRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Close ничего не делает
func (r *MemoryViewerRepo) Close() error { return nil }
