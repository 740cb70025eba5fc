package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/annel0/voxel-engine/internal/vec"
)

// ErrViewerNotFound: удаление записи, которой нет
var ErrViewerNotFound = errors.New("наблюдатель не найден")

// ViewerRepo хранит опорный чанк каждого наблюдателя, чтобы после перезапуска
// пул занимал чанки вокруг последней известной позиции.
type ViewerRepo interface {
	// Save сохраняет опорный чанк наблюдателя
	Save(ctx context.Context, viewerID string, chunk vec.Vec2) error

	// Load возвращает опорный чанк; false, если наблюдатель не сохранялся
	Load(ctx context.Context, viewerID string) (vec.Vec2, bool, error)

	// Delete удаляет запись наблюдателя
	Delete(ctx context.Context, viewerID string) error

	// BatchSave сохраняет несколько записей за раз (автосохранение)
	BatchSave(ctx context.Context, anchors map[string]vec.Vec2) error

	// Close освобождает соединения
	Close() error
}

// Бэкенды репозитория наблюдателей
const (
	ViewerBackendMemory = "memory"
	ViewerBackendSQLite = "sqlite"
	ViewerBackendMySQL  = "mysql"
	ViewerBackendRedis  = "redis"
	ViewerBackendMongo  = "mongo"
)

// OpenViewerRepo открывает репозиторий указанного бэкенда.
// Для sqlite dsn - путь к файлу, для mysql - строка подключения,
// для redis - адрес сервера, для mongo - URI.
func OpenViewerRepo(backend, dsn string) (ViewerRepo, error) {
	switch strings.ToLower(backend) {
	case "", ViewerBackendMemory:
		return NewMemoryViewerRepo(), nil
	case ViewerBackendSQLite:
		return NewSQLiteViewerRepo(dsn)
	case ViewerBackendMySQL:
		return NewMySQLViewerRepo(dsn)
	case ViewerBackendRedis:
		cfg := DefaultRedisConfig()
		if dsn != "" {
			cfg.Addr = dsn
		}
		return NewRedisViewerRepo(cfg)
	case ViewerBackendMongo:
		return NewMongoViewerRepo(MongoConfig{URI: dsn})
	default:
		return nil, fmt.Errorf("неизвестный бэкенд наблюдателей: %s", backend)
	}
}

func validateViewerID(viewerID string) error {
	if strings.TrimSpace(viewerID) == "" {
		return fmt.Errorf("пустой идентификатор наблюдателя")
	}
	if len(viewerID) > 64 {
		return fmt.Errorf("идентификатор наблюдателя длиннее 64 символов: %q", viewerID)
	}
	return nil
}
