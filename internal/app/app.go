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
	"lms_backend/internal/util"
	"lms_backend/pkg/configwatcher"
	"lms_backend/pkg/database"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/security"
	"lms_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const leaderboardRebuildInterval = time.Hour

type App struct {
	Config          *config.Config
	ConfigFile      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	stop            context.CancelFunc
	configCallbacks []configwatcher.Reloader
}

type repositories struct {
	user         *repository.UserRepository
	course       *repository.CourseRepository
	quiz         *repository.QuizRepository
	attempt      *repository.AttemptRepository
	enrollment   *repository.EnrollmentRepository
	learningPath *repository.LearningPathRepository
	certificate  *repository.CertificateRepository
	point        *repository.PointRepository
	notification *repository.NotificationRepository
	setting      *repository.SettingRepository
	aiDraft      *repository.AIDraftRepository
	event        *repository.TrainingEventRepository
	store        *repository.GormStore
}

type services struct {
	auth         *service.AuthService
	user         *service.UserService
	storage      *service.StorageService
	content      *service.ContentService
	course       *service.CourseService
	quizAdmin    *service.QuizAdminService
	quiz         *service.QuizService
	progress     *service.ProgressService
	learningPath *service.LearningPathService
	certificate  *service.CertificateService
	point        *service.PointService
	notification *service.NotificationService
	rewards      *service.RewardPolicy
	settings     *service.SettingsResolver
	ai           *service.AIService
	event        *service.EventService
	dispatcher   *service.Dispatcher
}

type controllers struct {
	auth         *controller.AuthController
	user         *controller.UserController
	course       *controller.CourseController
	content      *controller.ContentController
	quiz         *controller.QuizController
	learning     *controller.LearningController
	learningPath *controller.LearningPathController
	achievement  *controller.AchievementController
	notification *controller.NotificationController
	event        *controller.EventController
	ai           *controller.AIController
	settings     *controller.SettingsController
	health       *controller.HealthController
}

// RegisterConfigCallback 配置文件变更后依次调用
func (a *App) RegisterConfigCallback(callback configwatcher.Reloader) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		course:       repository.NewCourseRepository(db),
		quiz:         repository.NewQuizRepository(db),
		attempt:      repository.NewAttemptRepository(db),
		enrollment:   repository.NewEnrollmentRepository(db),
		learningPath: repository.NewLearningPathRepository(db),
		certificate:  repository.NewCertificateRepository(db),
		point:        repository.NewPointRepository(db),
		notification: repository.NewNotificationRepository(db),
		setting:      repository.NewSettingRepository(db),
		aiDraft:      repository.NewAIDraftRepository(db),
		event:        repository.NewTrainingEventRepository(db),
		store:        repository.NewGormStore(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.content = service.NewContentService(repos.course, s.storage, cfg)
	s.course = service.NewCourseService(repos.course)
	s.quizAdmin = service.NewQuizAdminService(repos.quiz, repos.attempt, repos.course)

	s.notification = service.NewNotificationService(repos.notification, rdb)
	s.certificate = service.NewCertificateService(repos.certificate, repos.user, s.notification)
	s.point = service.NewPointService(repos.point, repos.user, s.notification, rdb)
	s.rewards = service.NewRewardPolicy(cfg.Rewards)

	// 事务提交后才触发的副作用
	s.dispatcher = service.NewDispatcher(
		service.MetricsHook{},
		&service.LeaderboardHook{Redis: rdb},
		&service.MailHook{Mailer: service.NewMailer(cfg.Mail), Users: repos.user, PublicURL: cfg.Server.PublicURL},
		s.notification,
	)

	engine := &service.CompletionEngine{
		Certs:   s.certificate,
		Points:  s.point,
		Notes:   s.notification,
		Rewards: s.rewards,
	}

	s.settings = service.NewSettingsResolver(repos.setting, cfg.AI)
	s.ai = service.NewAIService(s.settings, repos.aiDraft, s.quizAdmin)

	s.quiz = service.NewQuizService(repos.store, engine, s.dispatcher, s.ai, repos.quiz, repos.attempt)
	s.progress = service.NewProgressService(repos.store, engine, s.dispatcher, repos.enrollment, repos.course)
	s.learningPath = service.NewLearningPathService(repos.store, engine, s.dispatcher, repos.learningPath)
	s.event = service.NewEventService(repos.event)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		user:         controller.NewUserController(s.user),
		course:       controller.NewCourseController(s.course, s.quizAdmin),
		content:      controller.NewContentController(s.content),
		quiz:         controller.NewQuizController(s.quiz, s.quizAdmin),
		learning:     controller.NewLearningController(s.progress),
		learningPath: controller.NewLearningPathController(s.learningPath),
		achievement:  controller.NewAchievementController(s.certificate, s.point),
		notification: controller.NewNotificationController(s.notification),
		event:        controller.NewEventController(s.event),
		ai:           controller.NewAIController(s.ai),
		settings:     controller.NewSettingsController(s.settings),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.RequestID())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	// 积分与 AI 参数支持热更新
	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.rewards.Update(cfg.Rewards)
		s.settings.SetAIConfig(cfg.AI)
	})
	if err := configwatcher.Watch(ctx, a.ConfigFile, a.configCallbacks...); err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}

	if err := s.point.RebuildLeaderboard(ctx); err != nil {
		logger.Log.Warn("Initial leaderboard rebuild failed", zap.Error(err))
	}

	// redis 重启或丢键后排行榜会缺人，定期从数据库重建
	go func() {
		ticker := time.NewTicker(leaderboardRebuildInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.point.RebuildLeaderboard(ctx); err != nil {
					logger.Log.Error("leaderboard rebuild error", zap.Error(err))
				}
			}
		}
	}()
}

func NewApp(cfg *config.Config, configFile string) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式默认不自动迁移，需显式 -migrate
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config:     cfg,
		ConfigFile: configFile,
		DB:         db,
	}
	if cfg.MigrateOnly {
		return app
	}

	// 排行榜和未读数缓存都有数据库兜底，redis 不可用时降级运行
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, running without cache", zap.Error(err))
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	if err := services.auth.EnsureAdmin(cfg.Admin); err != nil {
		logger.Log.Fatal("Failed to create initial admin", zap.Error(err))
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("lms-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.stop = cancel
	app.startBackgroundTasks(ctx, services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.stop != nil {
		a.stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
