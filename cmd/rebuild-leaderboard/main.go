package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/yourusername/quizhub-api/internal/config"
	pgRepo "github.com/yourusername/quizhub-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/quizhub-api/internal/repository/redis"
	"github.com/yourusername/quizhub-api/internal/service"
	"github.com/yourusername/quizhub-api/pkg/database"
)

// Утилита полной пересборки лидерборда из истории отправок.
// Запускается вручную или по расписанию; безопасна при работающем API -
// одновременную пересборку исключает распределённая блокировка.
func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Fatalf("Failed to initialize CacheRepo: %v", err)
	}

	leaderboardRepo := pgRepo.NewLeaderboardRepo(db)
	submissionRepo := pgRepo.NewSubmissionRepo(db)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, submissionRepo, cacheRepo)

	// SIGINT/SIGTERM прерывают пересборку до записи результата
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	count, err := leaderboardService.Rebuild(ctx)
	if err != nil {
		log.Fatalf("Rebuild failed: %v", err)
	}

	log.Printf("Лидерборд пересобран: %d записей", count)
}
