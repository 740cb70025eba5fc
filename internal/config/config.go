package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/annel0/voxel-engine/internal/world/chunkpool"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации движка.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Worker    WorkerConfig    `yaml:"worker"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WorldConfig struct {
	Radius          int    `yaml:"radius"`
	Seed            int64  `yaml:"seed"`
	Planet          string `yaml:"planet"` // normal | hostile
	File            string `yaml:"file"`   // .zst - сжатый файл
	PrefabDir       string `yaml:"prefab_dir"`
	AutoSaveSeconds int    `yaml:"autosave_seconds"`
}

type WorkerConfig struct {
	Count       int `yaml:"count"`
	IdleSleepMs int `yaml:"idle_sleep_ms"`
	UploadLimit int `yaml:"upload_limit"` // мешей за кадр, 0 - без ограничения
	FrameMs     int `yaml:"frame_ms"`
}

type StorageConfig struct {
	JournalDir    string `yaml:"journal_dir"` // пусто - без журнала правок
	ViewerBackend string `yaml:"viewer_backend"`
	ViewerDSN     string `yaml:"viewer_dsn"`
}

// EventBusConfig: пустой URL - in-memory шина.
type EventBusConfig struct {
	URL           string `yaml:"url"`
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
	Retention     int    `yaml:"retention_hours"`
	Buffer        int    `yaml:"buffer"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type AuthConfig struct {
	Secret            string `yaml:"secret"` // base64, не короче 32 байт; пусто - случайный
	AdminUser         string `yaml:"admin_user"`
	AdminPasswordHash string `yaml:"admin_password_hash"` // bcrypt
	TokenTTLMinutes   int    `yaml:"token_ttl_minutes"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Dir          string `yaml:"dir"`
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
	// Components задаёт уровень отдельных компонентов: mesher: TRACE
	Components map[string]string `yaml:"components"`
}

// Default возвращает конфигурацию, с которой движок запускается без файла.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Radius:          4,
			Seed:            1337,
			Planet:          "normal",
			File:            "world.txt",
			AutoSaveSeconds: 60,
		},
		Worker: WorkerConfig{
			Count:       1,
			IdleSleepMs: 2,
			UploadLimit: 8,
			FrameMs:     16,
		},
		Storage: StorageConfig{
			ViewerBackend: "memory",
		},
		EventBus: EventBusConfig{
			SubjectPrefix: "voxel.events",
			Retention:     24,
			Buffer:        1024,
		},
		Auth: AuthConfig{
			AdminUser:       "admin",
			TokenTTLMinutes: 60,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voxel-engine",
		},
		Logging: LoggingConfig{
			Dir:          "logs",
			ConsoleLevel: "INFO",
			FileLevel:    "DEBUG",
		},
	}
}

// IdleSleep возвращает паузу воркера при пустых очередях
func (w *WorkerConfig) IdleSleep() time.Duration {
	return time.Duration(w.IdleSleepMs) * time.Millisecond
}

// Frame возвращает длительность кадра рендера
func (w *WorkerConfig) Frame() time.Duration {
	return time.Duration(w.FrameMs) * time.Millisecond
}

// AutoSave возвращает период автосохранения; 0 - выключено
func (w *WorldConfig) AutoSave() time.Duration {
	return time.Duration(w.AutoSaveSeconds) * time.Second
}

// TokenTTL возвращает время жизни токена API
func (a *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "VOXEL_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "VOXEL_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Validate проверяет значения, которые движок не может исправить сам
func (c *Config) Validate() error {
	if c.World.Radius < 0 || c.World.Radius > chunkpool.MaxRadius {
		return fmt.Errorf("world.radius должен быть в диапазоне [0, %d], получено %d", chunkpool.MaxRadius, c.World.Radius)
	}
	switch strings.ToLower(c.World.Planet) {
	case "normal", "hostile":
	default:
		return fmt.Errorf("неизвестный тип планеты: %q", c.World.Planet)
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("worker.count должен быть >= 1, получено %d", c.Worker.Count)
	}
	if c.World.AutoSaveSeconds < 0 {
		return fmt.Errorf("world.autosave_seconds не может быть отрицательным")
	}
	return nil
}

// Load читает YAML файл поверх Default().
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG или возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан - использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать конфиг %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("некорректный конфиг %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
