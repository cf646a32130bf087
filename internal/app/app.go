package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/config"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/controller"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/remote"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/repository"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/service"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/database"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/logger"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/monitoring"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/security"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	catalog *repository.CatalogRepository
	attempt *repository.AttemptRepository
	pending *repository.PendingOperationRepository
	cache   *repository.CacheRepository
}

type services struct {
	remote       remote.Service
	session      *service.SessionService
	sync         *service.SyncService
	connectivity *service.ConnectivityService
	assetCache   *service.AssetCacheService
}

type controllers struct {
	session *controller.SessionController
	sync    *controller.SyncController
	cache   *controller.CacheController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		catalog: repository.NewCatalogRepository(db),
		attempt: repository.NewAttemptRepository(db),
		pending: repository.NewPendingOperationRepository(db),
		cache:   repository.NewCacheRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	remoteClient := remote.NewClient(cfg.Remote)
	syncSvc := service.NewSyncService(repos.pending, remoteClient)
	connectivity := service.NewConnectivityService(remoteClient,
		time.Duration(cfg.Connectivity.ProbeIntervalSeconds)*time.Second)

	return &services{
		remote:       remoteClient,
		session:      service.NewSessionService(repos.catalog, repos.attempt, remoteClient, syncSvc),
		sync:         syncSvc,
		connectivity: connectivity,
		assetCache:   service.NewAssetCacheService(repos.cache, cfg.AssetCache, cfg.Remote.BaseURL),
	}
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		session: controller.NewSessionController(s.session),
		sync:    controller.NewSyncController(s.sync, s.connectivity, s.remote),
		cache:   controller.NewCacheController(s.assetCache),
		health:  controller.NewHealthController(db, s.connectivity),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	if cfg.RateLimit.MaxRequests > 0 {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests,
			time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))
	}

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks wires the flush triggers: the connectivity monitor
// fires on offline-to-online transitions, and an independent ticker covers
// missed events. Both collapse into the same guarded Flush.
func (a *App) startBackgroundTasks(s *services) {
	s.connectivity.Subscribe(func(online bool) {
		if online {
			go func() {
				if _, err := s.sync.Flush(context.Background()); err != nil {
					logger.Log.Error("flush after reconnect failed", zap.Error(err))
				}
			}()
		}
	})
	s.connectivity.Start()

	go func() {
		ticker := time.NewTicker(time.Duration(a.Config.Sync.IntervalSeconds) * time.Second)
		for range ticker.C {
			if _, err := s.sync.Flush(context.Background()); err != nil {
				logger.Log.Error("periodic flush failed", zap.Error(err))
			}
		}
	}()

	// install the configured asset manifest; a failed install leaves any
	// previously active bucket serving
	if a.Config.AssetCache.Version != "" && len(a.Config.AssetCache.Manifest) > 0 {
		go func() {
			version := a.Config.AssetCache.Version
			if current, _ := s.assetCache.ActiveVersion(); current == version {
				return
			}
			if err := s.assetCache.Install(context.Background(), version, a.Config.AssetCache.Manifest); err != nil {
				logger.Log.Warn("asset cache install skipped", zap.Error(err))
				return
			}
			if err := s.assetCache.Activate(version); err != nil {
				logger.Log.Error("asset cache activation failed", zap.Error(err))
			}
		}()
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitStore(&cfg.Store)
	if err != nil {
		logger.Log.Fatal("Failed to initialize local store", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("nabha-learning-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(services)

	return app
}

func ginMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.services != nil && a.services.connectivity != nil {
		a.services.connectivity.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
