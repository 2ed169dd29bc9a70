package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/yourusername/quiz-api/internal/config"
	"github.com/yourusername/quiz-api/internal/domain/repository"
	"github.com/yourusername/quiz-api/internal/handler"
	"github.com/yourusername/quiz-api/internal/middleware"
	pgRepo "github.com/yourusername/quiz-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/quiz-api/internal/repository/redis"
	"github.com/yourusername/quiz-api/internal/service"
	ws "github.com/yourusername/quiz-api/internal/websocket"
	"github.com/yourusername/quiz-api/pkg/auth"
	"github.com/yourusername/quiz-api/pkg/database"
)

func main() {
	config.LoadEnvFiles()

	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Контекст жизненного цикла фоновых горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// База данных: миграции для PostgreSQL, AutoMigrate для SQLite
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Printf("Failed to open database: %v", err)
		os.Exit(1)
	}

	// Redis необязателен: без него кеш отключен, rate limit и лента работают в пределах процесса
	var (
		redisClient    redis.UniversalClient
		cacheRepo      *redisRepo.CacheRepo
		cache          repository.CacheRepository
		pubSubProvider ws.PubSubProvider = &ws.NoOpPubSub{}
	)
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewUniversalRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		log.Println("Successfully connected to Redis")

		cacheRepo, err = redisRepo.NewCacheRepo(redisClient, "quiz:")
		if err != nil {
			log.Printf("Failed to initialize CacheRepo: %v", err)
			os.Exit(1)
		}
		cache = cacheRepo

		redisProvider, errProv := ws.NewRedisPubSub(redisClient)
		if errProv != nil {
			log.Printf("Ошибка при создании Redis PubSub провайдера: %v. Лента будет работать только в этом инстансе.", errProv)
		} else {
			pubSubProvider = redisProvider
		}
	}

	// Репозитории
	accountRepo := pgRepo.NewAccountRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)
	settingRepo := pgRepo.NewSettingRepo(db)

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	var mailer service.EmailService = &service.NoopEmailService{}
	if cfg.Email.APIKey != "" {
		resendMailer, errMail := service.NewResendEmailService(cfg.Email.APIKey, cfg.Email.From)
		if errMail != nil {
			log.Printf("Failed to initialize email service: %v. Письма отправляться не будут.", errMail)
		} else {
			mailer = resendMailer
		}
	}

	// Лента попыток для администраторов
	hub := ws.NewHub(pubSubProvider, ws.DefaultChannel)
	go hub.Run(ctx)

	// Сервисы
	settingsService := service.NewSettingsService(settingRepo)
	if err := settingsService.EnsureDefaults(ctx); err != nil {
		log.Printf("Failed to initialize settings: %v", err)
		os.Exit(1)
	}

	gate := service.NewAccessGate(jwtService, accountRepo)
	authService := service.NewAuthService(accountRepo, jwtService, gate, mailer)
	googleService := service.NewGoogleOAuthService(service.NewGoogleTokenVerifier(cfg.Google), accountRepo, jwtService, mailer)
	recorder := service.NewAttemptRecorder(attemptRepo, hub)
	quizService := service.NewQuizService(questionRepo, attemptRepo, recorder, settingsService, cache)
	questionService := service.NewQuestionService(questionRepo, cache)
	accountService := service.NewAccountService(accountRepo, questionRepo, attemptRepo)

	if admin, err := accountService.BootstrapAdmin(ctx, cfg.Admin); err != nil {
		log.Printf("Failed to bootstrap admin account: %v", err)
		os.Exit(1)
	} else if admin != nil {
		log.Printf("Admin account ready: %s", admin.Email)
	}

	// Rate limiting: память процесса или общий счетчик в Redis
	var limiterStore middleware.RateLimitStore
	switch cfg.RateLimit.Store {
	case "redis":
		if cacheRepo == nil {
			log.Printf("Rate limit store 'redis' requires REDIS_ADDR")
			os.Exit(1)
		}
		limiterStore = middleware.NewRedisStore(cacheRepo)
	default:
		limiterStore = middleware.NewMemoryStore(ctx, time.Minute, 2*cfg.RateLimit.Window())
	}

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService, googleService),
		Quiz:      handler.NewQuizHandler(quizService),
		Questions: handler.NewQuestionHandler(questionService, cfg.Upload.MaxBytes),
		Admin:     handler.NewAdminHandler(accountService, settingsService),
		Live:      handler.NewLiveHandler(hub, gate, cfg.Server.AllowedOrigins),
	}

	// Инициализируем роутер Gin
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// В production не доверяем прокси-заголовкам, в development доверяем localhost
	isProduction := gin.Mode() == gin.ReleaseMode
	trustedProxies := []string{"127.0.0.1", "::1"}
	if isProduction {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SecurityHeaders(), middleware.RequestMetrics())

	handler.RegisterRoutes(router, handlers, handler.RouteOptions{
		Auth:    middleware.NewAuthMiddleware(gate),
		Limiter: middleware.NewRateLimiter(limiterStore),
		GlobalLimit: middleware.RateLimitConfig{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      cfg.RateLimit.Window(),
			KeyPrefix:   "api",
		},
		AuthLimit: middleware.RateLimitConfig{
			MaxRequests: cfg.RateLimit.AuthMaxRequests,
			Window:      cfg.RateLimit.Window(),
			KeyPrefix:   "auth",
			PerRoute:    true,
		},
	})

	router.GET("/health", healthHandler(db, cacheRepo))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Останавливаем hub и очистку rate limit
	cancel()

	if err := pubSubProvider.Close(); err != nil {
		log.Printf("Error closing PubSub provider: %v", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Println("Server exited properly")
}

// healthHandler проверяет доступность базы данных и Redis
func healthHandler(db *gorm.DB, cacheRepo *redisRepo.CacheRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok"}
		code := http.StatusOK

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			log.Printf("[Health] Database ping failed: %v", err)
			status["status"] = "degraded"
			status["database"] = "unavailable"
			code = http.StatusServiceUnavailable
		}

		if cacheRepo != nil {
			status["redis"] = "ok"
			if err := cacheRepo.Ping(ctx); err != nil {
				log.Printf("[Health] Redis ping failed: %v", err)
				status["status"] = "degraded"
				status["redis"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}

		c.JSON(code, status)
	}
}
