package repository

import (
	"time"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
)

// LeaderboardTotals - сводные показатели по всему лидерборду
type LeaderboardTotals struct {
	TotalUsers   int64
	TotalScore   int64
	AverageScore float64
}

// LeaderboardRepository определяет методы для работы с лидербордом
type LeaderboardRepository interface {
	GetByUserID(userID uint) (*entity.LeaderboardEntry, error)
	Create(entry *entity.LeaderboardEntry) error
	// ApplySubmission атомарно включает одну отправку в существующую запись
	// одним UPDATE-выражением (инкременты счётчиков, взвешенное среднее
	// процентов, максимум лучшего результата, серия).
	ApplySubmission(userID uint, score, percentage, timeTakenSec int, submittedAt time.Time, streak, longestStreak int) error
	// AppendAchievements дописывает новые достижения к записи пользователя.
	// Уже выданные достижения не перезаписываются.
	AppendAchievements(userID uint, achievements []entity.Achievement) error
	// List возвращает страницу лидерборда по возрастанию ранга.
	// since (опционально) отфильтровывает записи без активности после даты.
	List(limit, offset int, since *time.Time) ([]entity.LeaderboardEntry, int64, error)
	ListAll() ([]entity.LeaderboardEntry, error)
	CountBetterThan(totalScore int) (int64, error)
	TopPerformers(limit int) ([]entity.LeaderboardEntry, error)
	Totals() (*LeaderboardTotals, error)
	// ReplaceAll заменяет весь набор записей в одной транзакции,
	// сохраняя списки достижений существующих записей слиянием.
	// Пересборка не может потерять выданные достижения.
	ReplaceAll(entries []entity.LeaderboardEntry) error
}
