package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/controller"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/pkg/database"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/security"
	"lms_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user           *repository.UserRepository
	course         *repository.CourseRepository
	lesson         *repository.LessonRepository
	userCourse     *repository.UserCourseRepository
	progress       *repository.UserProgressRepository
	moduleProgress *repository.UserModuleProgressRepository
	unlocked       *repository.UnlockedModuleRepository
	certificate    *repository.CertificateRepository
}

type services struct {
	lesson      *service.LessonService
	course      *service.CourseService
	module      *service.ModuleService
	certificate *service.CertificateService
}

type controllers struct {
	lesson      *controller.LessonController
	course      *controller.CourseController
	module      *controller.ModuleController
	certificate *controller.CertificateController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:           repository.NewUserRepository(db),
		course:         repository.NewCourseRepository(db),
		lesson:         repository.NewLessonRepository(db),
		userCourse:     repository.NewUserCourseRepository(db),
		progress:       repository.NewUserProgressRepository(db),
		moduleProgress: repository.NewUserModuleProgressRepository(db),
		unlocked:       repository.NewUnlockedModuleRepository(db),
		certificate:    repository.NewCertificateRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	cacheTTL := time.Duration(cfg.Cache.RoadmapTTLMinutes) * time.Minute

	return &services{
		lesson: service.NewLessonService(
			repos.lesson,
			repos.course,
			repos.userCourse,
			repos.progress,
			repos.moduleProgress,
			db,
			rdb,
		),
		course: service.NewCourseService(
			repos.course,
			repos.userCourse,
			repos.progress,
			repos.lesson,
			repos.user,
			rdb,
			cacheTTL,
		),
		module: service.NewModuleService(
			repos.course,
			repos.lesson,
			repos.userCourse,
			repos.progress,
			repos.unlocked,
			rdb,
		),
		certificate: service.NewCertificateService(
			repos.certificate,
			repos.user,
			repos.course,
			repos.userCourse,
		),
	}
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		lesson:      controller.NewLessonController(s.lesson),
		course:      controller.NewCourseController(s.course),
		module:      controller.NewModuleController(s.module),
		certificate: controller.NewCertificateController(s.certificate),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	} else {
		logger.Log.Info("Redis disabled, roadmap caching off")
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("lms-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	return app
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Error("Failed to close redis client", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
