package app

import (
	"codesikho_backend/internal/config"
	"codesikho_backend/internal/content"
	"codesikho_backend/internal/controller"
	"codesikho_backend/internal/progression"
	"codesikho_backend/internal/repository"
	"codesikho_backend/internal/service"
	"codesikho_backend/pkg/configwatcher"
	"codesikho_backend/pkg/database"
	"codesikho_backend/pkg/logger"
	"codesikho_backend/pkg/monitoring"
	"codesikho_backend/pkg/security"
	"codesikho_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	ConfigDir string
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client

	services        *services
	limiters        []*security.Limiter
	tracer          *sdktrace.TracerProvider
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	progress    *repository.ProgressRepository
	activityLog *repository.ActivityLogRepository
	leaderboard *repository.LeaderboardRepository
}

type services struct {
	progression *service.ProgressionService
	leaderboard *service.LeaderboardService
	stats       *service.StatsService
	user        *service.UserService
}

type controllers struct {
	submission  *controller.SubmissionController
	leaderboard *controller.LeaderboardController
	user        *controller.UserController
	content     *controller.ContentController
	health      *controller.HealthController
}

// domain is the process-wide, read-only progression setup.
type domain struct {
	curve      progression.LevelCurve
	badges     *progression.Catalog
	engine     *progression.Engine
	activities *content.Catalog
}

func newDomain(cfg *config.Config) (*domain, error) {
	curve, err := progression.NewLevelCurve(cfg.Progression.XPPerLevel)
	if err != nil {
		return nil, err
	}
	activities, err := content.Load()
	if err != nil {
		return nil, err
	}
	badges := progression.DefaultCatalog()
	return &domain{
		curve:      curve,
		badges:     badges,
		engine:     progression.NewEngine(curve, badges),
		activities: activities,
	}, nil
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// applyConfig runs the reload callbacks. Only hot-reloadable settings are
// consumed; the level curve stays fixed for the process lifetime.
func (a *App) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()
	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, d *domain) *repositories {
	return &repositories{
		progress:    repository.NewProgressRepository(db, d.curve),
		activityLog: repository.NewActivityLogRepository(db),
		leaderboard: repository.NewLeaderboardRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client, d *domain) *services {
	s := &services{}

	s.leaderboard = service.NewLeaderboardService(repos.leaderboard, rdb, cfg.Leaderboard.CacheTTL())
	s.progression = service.NewProgressionService(d.engine, repos.progress, repos.activityLog, d.activities, s.leaderboard)
	s.stats = service.NewStatsService(repos.progress, d.curve)
	s.user = service.NewUserService(repos.progress, repos.activityLog, d.badges, d.curve)

	return s
}

func (a *App) initControllers(s *services, cfg *config.Config, db *gorm.DB, rdb *redis.Client, d *domain) *controllers {
	return &controllers{
		submission:  controller.NewSubmissionController(s.progression),
		leaderboard: controller.NewLeaderboardController(s.leaderboard, cfg.Leaderboard.DefaultLimit, cfg.Leaderboard.MaxLimit),
		user:        controller.NewUserController(s.user, s.stats),
		content:     controller.NewContentController(d.activities, d.badges),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	ipLimiter := security.NewLimiter(cfg.RateLimit.MaxRequests, window)
	a.limiters = append(a.limiters, ipLimiter)
	router.Use(ipLimiter.Middleware(nil))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New wires an App around already opened stores. rdb may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	d, err := newDomain(cfg)
	if err != nil {
		return nil, fmt.Errorf("init progression: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, d)
	svcs := app.initServices(repos, cfg, rdb, d)
	app.services = svcs
	ctrls := app.initControllers(svcs, cfg, db, rdb, d)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls, cfg)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		if !logger.SetLevel(newCfg.Log.Level) {
			logger.Log.Warn("Ignoring unknown log level", zap.String("level", newCfg.Log.Level))
		}
		svcs.leaderboard.SetCacheTTL(newCfg.Leaderboard.CacheTTL())
		if newCfg.Progression.XPPerLevel != cfg.Progression.XPPerLevel {
			logger.Log.Warn("progression.xp_per_level changes need a restart",
				zap.Int("running", cfg.Progression.XPPerLevel),
				zap.Int("configured", newCfg.Progression.XPPerLevel))
		}
	})

	return app, nil
}

// NewApp opens the stores described by cfg and wires the App.
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			// 缓存是可选的，排行榜直接查库
			logger.Log.Warn("Redis unavailable, leaderboard cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	app, err := New(cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize application", zap.Error(err))
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, l := range a.limiters {
		go l.Run(ctx)
	}
	if a.ConfigDir != "" {
		go func() {
			if err := configwatcher.WatchConfig(ctx, a.ConfigDir, a.applyConfig); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close(shutdownCtx)

	logger.Log.Info("Server exiting")
}

// Close releases the stores and flushes traces.
func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = logger.Log.Sync()
}

// Migrate only runs the schema migration. Used by -migrate-only.
func Migrate(cfg *config.Config) error {
	logger.InitLogger(cfg)
	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	return database.Migrate(db)
}

