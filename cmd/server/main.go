package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-engine/internal/api"
	"github.com/annel0/voxel-engine/internal/auth"
	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/eventbus"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/observability"
	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/structure"
	"github.com/annel0/voxel-engine/internal/world/terrain"
	"golang.org/x/sync/errgroup"
)

const defaultViewer = "default"

func main() {
	configPath := flag.String("config", "", "Путь к YAML конфигу (по умолчанию $VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitLogger(cfg.Logging.Dir); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseLogger()
	logging.SetGlobalLevels(logging.ParseLevel(cfg.Logging.ConsoleLevel), logging.ParseLevel(cfg.Logging.FileLevel))
	for component, level := range cfg.Logging.Components {
		logging.GetComponentLogger(component)
		lvl := logging.ParseLevel(level)
		if err := logging.GetLoggerManager().SetLogLevel(component, lvl, lvl); err != nil {
			log.Printf("⚠️ %v", err)
		}
	}

	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseLogger()
		os.Exit(1)
	}
	logging.Info("👋 Движок успешно остановлен")
}

func run(cfg *config.Config) error {
	logging.Info("🧊 Запуск воксельного движка: радиус=%d сид=%d планета=%s", cfg.World.Radius, cfg.World.Seed, cfg.World.Planet)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	defer shutdownTelemetry(context.Background())

	// === ШИНА СОБЫТИЙ ===
	bus, err := openBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Warn("Шина событий закрыта с ошибкой: %v", err)
		}
	}()
	eventbus.Init(bus)
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("Слушатель событий не запущен: %v", err)
	}
	busMetrics := eventbus.NewMetricsExporter(bus, nil)
	busMetrics.Start(time.Second)
	defer busMetrics.Stop()

	// === ХРАНИЛИЩА ===
	var journal world.EditJournal
	if cfg.Storage.JournalDir != "" {
		j, err := storage.OpenJournal(cfg.Storage.JournalDir)
		if err != nil {
			return fmt.Errorf("журнал правок: %w", err)
		}
		defer j.Close()
		journal = j
	}

	viewers, err := storage.OpenViewerRepo(cfg.Storage.ViewerBackend, cfg.Storage.ViewerDSN)
	if err != nil {
		return fmt.Errorf("репозиторий наблюдателей: %w", err)
	}
	defer viewers.Close()

	lib, err := structure.LoadLibrary(cfg.World.PrefabDir)
	if err != nil {
		return fmt.Errorf("библиотека префабов: %w", err)
	}

	// === ДВИЖОК ===
	planet, err := terrain.ParsePlanet(cfg.World.Planet)
	if err != nil {
		return err
	}
	engine := world.NewEngine(world.Options{
		Radius:    cfg.World.Radius,
		Seed:      cfg.World.Seed,
		Planet:    planet,
		IdleSleep: cfg.Worker.IdleSleep(),
		Library:   lib,
		Journal:   journal,
		Bus:       bus,
		Metrics:   world.NewMetrics(nil),
	})
	if cfg.World.File != "" {
		if err := engine.LoadWorldFromFile(cfg.World.File); err != nil {
			return err
		}
	}

	anchor, found, err := viewers.Load(ctx, defaultViewer)
	if err != nil {
		logging.Warn("Не удалось прочитать позицию наблюдателя: %v", err)
	}
	if !found {
		anchor = vec.Vec2{}
	}
	moved := engine.UpdateViewer(anchor)
	logging.Info("👁️ Наблюдатель в чанке (%d,%d), занято слотов: %d", anchor.X, anchor.Z, moved)

	// === API ===
	tokens, err := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL())
	if err != nil {
		return fmt.Errorf("токены API: %w", err)
	}
	server, err := api.NewRestServer(api.Config{
		Port:      fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		Engine:    engine,
		Viewers:   viewers,
		Tokens:    tokens,
		Operator:  auth.Operator{Name: cfg.Auth.AdminUser, PasswordHash: cfg.Auth.AdminPasswordHash},
		WorldPath: cfg.World.File,
	})
	if err != nil {
		return err
	}

	// === ГОРУТИНЫ ===
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Worker.Count; i++ {
		g.Go(func() error {
			engine.RunWorker(gctx)
			return nil
		})
	}
	g.Go(func() error {
		runRenderLoop(gctx, engine, cfg.Worker.Frame(), cfg.Worker.UploadLimit)
		return nil
	})
	g.Go(func() error {
		engine.RunAutoSave(gctx, cfg.World.File, cfg.World.AutoSave())
		return nil
	})
	g.Go(func() error {
		return server.Start(gctx)
	})
	if port := cfg.Server.GetMetricsPort(); port != cfg.Server.GetRESTPort() {
		g.Go(func() error {
			return serveMetrics(gctx, fmt.Sprintf(":%d", port))
		})
	}

	logging.Info("✅ Движок запущен")
	logging.Info("   🌐 REST API: http://localhost:%d", cfg.Server.GetRESTPort())
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetRESTPort())

	err = g.Wait()

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Завершение работы...")
	if center, ok := engine.Viewer(); ok {
		saveCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if serr := viewers.Save(saveCtx, defaultViewer, center); serr != nil {
			logging.Warn("Позиция наблюдателя не сохранена: %v", serr)
		}
		cancel()
	}
	if cfg.World.File != "" {
		if serr := engine.SaveCurrentWorldToFile(cfg.World.File); serr != nil {
			logging.Error("❌ Финальное сохранение не удалось: %v", serr)
		}
	}
	return err
}

// openBus выбирает шину событий: NATS, если задан URL, иначе in-memory
func openBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		return eventbus.NewMemoryBus(cfg.Buffer), nil
	}

	bus, err := eventbus.NewNATSBus(eventbus.NATSConfig{
		URL:           cfg.URL,
		Stream:        cfg.Stream,
		SubjectPrefix: cfg.SubjectPrefix,
		Retention:     time.Duration(cfg.Retention) * time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("шина событий: %w", err)
	}
	return bus, nil
}
