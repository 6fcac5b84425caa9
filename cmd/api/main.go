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

	"github.com/yourusername/quizhub-api/internal/config"
	"github.com/yourusername/quizhub-api/internal/handler"
	"github.com/yourusername/quizhub-api/internal/middleware"
	pgRepo "github.com/yourusername/quizhub-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/quizhub-api/internal/repository/redis"
	"github.com/yourusername/quizhub-api/internal/service"
	"github.com/yourusername/quizhub-api/pkg/auth"
	"github.com/yourusername/quizhub-api/pkg/database"
)

func main() {
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

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	quizRepo := pgRepo.NewQuizRepo(db)
	submissionRepo := pgRepo.NewSubmissionRepo(db)
	leaderboardRepo := pgRepo.NewLeaderboardRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Почтовый сервис: Resend в production, заглушка при выключенной почте
	var emailService service.EmailService
	if cfg.Email.Enabled {
		emailService, err = service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.FromAddress)
		if err != nil {
			log.Printf("Failed to initialize ResendEmailService: %v", err)
			os.Exit(1)
		}
	} else {
		emailService = &service.NoopEmailService{}
	}

	// Инициализируем сервисы
	triviaService := service.NewTriviaService(cfg.Trivia)
	hintService := service.NewHintService(cfg.AI)
	authService := service.NewAuthService(userRepo, jwtService)
	quizService := service.NewQuizService(quizRepo, submissionRepo, userRepo, triviaService)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, submissionRepo, cacheRepo)
	submissionService := service.NewSubmissionService(db, submissionRepo, quizRepo, userRepo, leaderboardService, emailService)

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	quizHandler := handler.NewQuizHandler(quizService, submissionService)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)
	hintHandler := handler.NewHintHandler(hintService)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	isProduction := gin.Mode() == gin.ReleaseMode

	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Register)
			authGroup.POST("/login", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Login)

			authedAuth := authGroup.Group("/")
			authedAuth.Use(authMiddleware.RequireAuth())
			{
				authedAuth.GET("/me", authHandler.Me)
				authedAuth.PUT("/me", authHandler.UpdateMe)
			}
		}

		// Викторины
		quizzes := api.Group("/quizzes")
		{
			quizzes.GET("", quizHandler.ListPublic)
			quizzes.GET("/categories", quizHandler.GetCategories)

			authedQuizzes := quizzes.Group("")
			authedQuizzes.Use(authMiddleware.RequireAuth())
			{
				authedQuizzes.POST("/generate", quizHandler.GenerateQuiz)
				authedQuizzes.GET("/created", quizHandler.ListCreated)
			}

			// Группа маршрутов, требующих quizID
			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractUintParam("id", "quizID"))
			{
				quizWithID.GET("/stats", quizHandler.GetQuizStats)
				quizWithID.GET("/leaderboard", quizHandler.GetQuizLeaderboard)

				authedQuizWithID := quizWithID.Group("")
				authedQuizWithID.Use(authMiddleware.RequireAuth())
				{
					authedQuizWithID.GET("", quizHandler.GetQuiz)
					authedQuizWithID.DELETE("", quizHandler.DeleteQuiz)
					authedQuizWithID.PUT("/settings", quizHandler.UpdateSettings)
					authedQuizWithID.POST("/submit", rateLimiter.Limit(middleware.SubmitRateLimitConfig()), quizHandler.SubmitQuiz)
				}
			}
		}

		// Отправки
		submissions := api.Group("/submissions")
		submissions.Use(authMiddleware.RequireAuth())
		{
			submissions.GET("", quizHandler.GetMySubmissions)

			submissionWithID := submissions.Group("/:id")
			submissionWithID.Use(middleware.ExtractUintParam("id", "submissionID"))
			{
				submissionWithID.GET("", quizHandler.GetSubmission)
				submissionWithID.POST("/feedback", quizHandler.SubmitFeedback)
			}
		}

		// Лидерборд
		leaderboard := api.Group("/leaderboard")
		{
			leaderboard.GET("", leaderboardHandler.List)
			leaderboard.GET("/stats", leaderboardHandler.Stats)

			authedLeaderboard := leaderboard.Group("")
			authedLeaderboard.Use(authMiddleware.RequireAuth())
			{
				authedLeaderboard.GET("/me", leaderboardHandler.Me)
				authedLeaderboard.GET("/achievements", leaderboardHandler.Achievements)
			}

			adminLeaderboard := leaderboard.Group("")
			adminLeaderboard.Use(authMiddleware.RequireAuth(), authMiddleware.RequireAdmin())
			{
				adminLeaderboard.POST("/rebuild", leaderboardHandler.Rebuild)
				adminLeaderboard.GET("/export", leaderboardHandler.Export)
			}
		}

		// AI-подсказки (дорогие внешние вызовы, общий лимит по IP)
		hints := api.Group("/hints")
		hints.Use(authMiddleware.RequireAuth(), rateLimiter.LimitByIP(middleware.AIRateLimitConfig()))
		{
			hints.POST("/question", hintHandler.GetHint)
			hints.POST("/explanation", hintHandler.GetExplanation)
			hints.POST("/study-suggestions", hintHandler.GetStudySuggestions)
		}
	}

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
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
