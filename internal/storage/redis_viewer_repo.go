package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей, 0 - без срока
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "voxel:viewer:",
		TTL:       24 * time.Hour,
	}
}

// RedisViewerRepo хранит опорные чанки в Redis строками "x:z"
type RedisViewerRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisViewerRepo подключается к Redis и проверяет соединение
func NewRedisViewerRepo(config *RedisConfig) (*RedisViewerRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis %s: %w", config.Addr, err)
	}

	logging.GetStorageLogger().Info("🔴 Подключено к Redis %s", config.Addr)
	return &RedisViewerRepo{
		client:    client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
	}, nil
}

func encodeAnchor(chunk vec.Vec2) string {
	return fmt.Sprintf("%d:%d", chunk.X, chunk.Z)
}

func decodeAnchor(s string) (vec.Vec2, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return vec.Vec2{}, fmt.Errorf("некорректная запись наблюдателя %q", s)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return vec.Vec2{}, fmt.Errorf("некорректная запись наблюдателя %q: %w", s, err)
	}
	z, err := strconv.Atoi(parts[1])
	if err != nil {
		return vec.Vec2{}, fmt.Errorf("некорректная запись наблюдателя %q: %w", s, err)
	}
	return vec.Vec2{X: x, Z: z}, nil
}

// Save сохраняет опорный чанк наблюдателя
func (r *RedisViewerRepo) Save(ctx context.Context, viewerID string, chunk vec.Vec2) error {
	if err := validateViewerID(viewerID); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.keyPrefix+viewerID, encodeAnchor(chunk), r.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения наблюдателя %s: %w", viewerID, err)
	}
	return nil
}

// Load загружает опорный чанк наблюдателя
func (r *RedisViewerRepo) Load(ctx context.Context, viewerID string) (vec.Vec2, bool, error) {
	if err := validateViewerID(viewerID); err != nil {
		return vec.Vec2{}, false, err
	}

	data, err := r.client.Get(ctx, r.keyPrefix+viewerID).Result()
	if errors.Is(err, redis.Nil) {
		return vec.Vec2{}, false, nil
	}
	if err != nil {
		return vec.Vec2{}, false, fmt.Errorf("ошибка загрузки наблюдателя %s: %w", viewerID, err)
	}

	chunk, err := decodeAnchor(data)
	if err != nil {
		return vec.Vec2{}, false, err
	}
	return chunk, true, nil
}

// Delete удаляет запись наблюдателя
func (r *RedisViewerRepo) Delete(ctx context.Context, viewerID string) error {
	if err := validateViewerID(viewerID); err != nil {
		return err
	}

	n, err := r.client.Del(ctx, r.keyPrefix+viewerID).Result()
	if err != nil {
		return fmt.Errorf("ошибка удаления наблюдателя %s: %w", viewerID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrViewerNotFound, viewerID)
	}
	return nil
}

// BatchSave сохраняет несколько записей одним пайплайном
func (r *RedisViewerRepo) BatchSave(ctx context.Context, anchors map[string]vec.Vec2) error {
	if len(anchors) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for viewerID, chunk := range anchors {
		if err := validateViewerID(viewerID); err != nil {
			return err
		}
		pipe.Set(ctx, r.keyPrefix+viewerID, encodeAnchor(chunk), r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ошибка выполнения batch: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisViewerRepo) Close() error {
	return r.client.Close()
}
