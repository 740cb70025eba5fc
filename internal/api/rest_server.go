package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/voxel-engine/internal/auth"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/middleware"
	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API движка
type RestServer struct {
	router    *gin.Engine
	engine    *world.Engine
	viewers   storage.ViewerRepo
	tokens    *auth.TokenManager
	operator  auth.Operator
	worldPath string
	port      string
	metrics   *ServerMetrics
	logger    *logging.Logger
	httpSrv   *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port      string               // порт для запуска сервера, например ":8088"
	Engine    *world.Engine        // движок мира
	Viewers   storage.ViewerRepo   // опорные чанки наблюдателей; nil - в памяти
	Tokens    *auth.TokenManager   // выпуск токенов
	Operator  auth.Operator        // учётная запись администратора
	WorldPath string               // файл мира для POST /api/world/save
	Registry  *prometheus.Registry // nil: дефолтный регистр
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Engine == nil {
		return nil, errors.New("REST сервер требует движок")
	}
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Viewers == nil {
		config.Viewers = storage.NewMemoryViewerRepo()
	}
	if config.Tokens == nil {
		tm, err := auth.NewTokenManager("", time.Hour)
		if err != nil {
			return nil, err
		}
		config.Tokens = tm
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxel_api"))
	router.Use(middleware.NewRequestLogger(0).Handler())

	promMw := middleware.NewPrometheusMiddleware("voxel_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:    router,
		engine:    config.Engine,
		viewers:   config.Viewers,
		tokens:    config.Tokens,
		operator:  config.Operator,
		worldPath: config.WorldPath,
		port:      config.Port,
		metrics:   NewServerMetrics(),
		logger:    logging.GetAPILogger(),
	}
	if !server.operator.Enabled() {
		server.logger.Warn("⚠️ Пароль администратора не задан: изменяющие маршруты открыты")
	}

	server.setupRoutes()
	return server, nil
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	api.POST("/auth/login", rs.handleLogin)

	// Чтение открыто
	api.GET("/stats", rs.handleStats)
	api.GET("/blocks/:x/:y/:z", rs.handleGetBlock)
	api.GET("/render", rs.handleRenderTable)
	api.GET("/prefabs", rs.handlePrefabs)
	api.GET("/viewers/:id", rs.handleGetViewer)
	api.GET("/spawn/:x/:z", rs.handleSpawn)

	// Изменения требуют токен администратора
	admin := api.Group("/")
	admin.Use(rs.jwtMiddleware(), rs.adminMiddleware())
	{
		admin.PUT("/blocks/:x/:y/:z", rs.handleSetBlock)
		admin.POST("/chunks/:x/:z/generate", rs.handleGenerateChunk)
		admin.POST("/prefabs/:name/place", rs.handlePlacePrefab)
		admin.POST("/world/save", rs.handleSaveWorld)
		admin.POST("/world/reset", rs.handleResetWorld)
		admin.PUT("/viewers/:id", rs.handlePutViewer)
		admin.DELETE("/viewers/:id", rs.handleDeleteViewer)
	}
}

// Start запускает HTTP сервер и блокируется до отмены ctx
func (rs *RestServer) Start(ctx context.Context) error {
	rs.httpSrv = &http.Server{
		Addr:              rs.port,
		Handler:           rs.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rs.logger.Info("🌐 REST API слушает %s", rs.port)
		if err := rs.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("REST сервер: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rs.logger.Info("🛑 Останавливаем REST API")
	return rs.httpSrv.Shutdown(shutdownCtx)
}
