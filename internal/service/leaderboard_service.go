package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	"github.com/yourusername/quizhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
	"github.com/yourusername/quizhub-api/internal/service/scoring"
)

// Ключи и времена жизни кеша лидерборда
const (
	leaderboardRebuildLockKey = "leaderboard:rebuild:lock"
	leaderboardRebuildLockTTL = 5 * time.Minute
	leaderboardStatsCacheKey  = "leaderboard:stats"
	leaderboardStatsCacheTTL  = 2 * time.Minute
)

// Временные рамки выборки лидерборда
const (
	TimeframeAll   = "all"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
)

// LeaderboardStats - сводка по лидерборду с лучшими участниками
type LeaderboardStats struct {
	TotalUsers    int64                     `json:"total_users"`
	TotalScore    int64                     `json:"total_score"`
	AverageScore  float64                   `json:"average_score"`
	TopPerformers []entity.LeaderboardEntry `json:"top_performers"`
}

// UserRank - позиция пользователя в лидерборде
type UserRank struct {
	Entry *entity.LeaderboardEntry `json:"entry"`
	Rank  int                      `json:"rank"`
}

// LeaderboardService поддерживает глобальный рейтинг и достижения.
//
// Инкрементальный путь (RecordSubmission) обновляет запись пользователя на
// каждую отправку и выдаёт достижения; ранги при этом не пересчитываются.
// Полная пересборка (Rebuild) восстанавливает лидерборд из истории отправок
// и назначает ранги. Одновременно может выполняться только одна пересборка.
type LeaderboardService struct {
	leaderboardRepo repository.LeaderboardRepository
	submissionRepo  repository.SubmissionRepository
	cacheRepo       repository.CacheRepository
}

// NewLeaderboardService создает новый сервис лидерборда
func NewLeaderboardService(
	leaderboardRepo repository.LeaderboardRepository,
	submissionRepo repository.SubmissionRepository,
	cacheRepo repository.CacheRepository,
) *LeaderboardService {
	return &LeaderboardService{
		leaderboardRepo: leaderboardRepo,
		submissionRepo:  submissionRepo,
		cacheRepo:       cacheRepo,
	}
}

// RecordSubmission включает завершённую отправку в запись лидерборда
// пользователя и возвращает новые достижения. Вызывается после того, как
// отправка и статистика зафиксированы в БД.
func (s *LeaderboardService) RecordSubmission(user *entity.User, submission *entity.Submission) ([]entity.Achievement, error) {
	entry, err := s.leaderboardRepo.GetByUserID(user.ID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		// Первая отправка пользователя: создаём запись целиком
		now := submission.CreatedAt
		entry = &entity.LeaderboardEntry{
			UserID:         user.ID,
			Username:       user.Username,
			Email:          user.Email,
			TotalScore:     submission.Score,
			TotalQuizzes:   1,
			AverageScore:   submission.Percentage,
			BestScore:      submission.Percentage,
			TotalTimeSpent: submission.TimeTakenSec,
			Achievements:   entity.AchievementList{},
			CurrentStreak:  1,
			LongestStreak:  1,
			LastQuizDate:   &now,
		}
		if err := s.leaderboardRepo.Create(entry); err != nil {
			return nil, fmt.Errorf("не удалось создать запись лидерборда: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		streak := scoring.NextStreak(entry.CurrentStreak, entry.LastQuizDate, submission.CreatedAt)
		longest := entry.LongestStreak
		if streak > longest {
			longest = streak
		}
		if err := s.leaderboardRepo.ApplySubmission(
			user.ID, submission.Score, submission.Percentage, submission.TimeTakenSec,
			submission.CreatedAt, streak, longest,
		); err != nil {
			return nil, err
		}
		// Перечитываем запись: инкременты выполнялись на стороне БД
		entry, err = s.leaderboardRepo.GetByUserID(user.ID)
		if err != nil {
			return nil, err
		}
	}

	newAchievements := scoring.Evaluate(entry, submission, time.Now())
	if len(newAchievements) > 0 {
		if err := s.leaderboardRepo.AppendAchievements(user.ID, newAchievements); err != nil {
			return nil, err
		}
		log.Printf("[LeaderboardService] Пользователь %d получил %d новых достижений", user.ID, len(newAchievements))
	}

	s.invalidateStatsCache()
	return newAchievements, nil
}

// Rebuild полностью пересобирает лидерборд из истории отправок: агрегирует
// по пользователям, пересчитывает серии, сортирует по сумме баллов по
// убыванию (при равенстве сохраняется порядок по возрастанию user_id)
// и назначает непрерывные ранги с 1. Списки достижений существующих записей
// сохраняются. Возвращает число записей.
//
// Защищено распределённой блокировкой: параллельный вызов завершается
// ошибкой ErrConflict. Контекст проверяется между пользователями, отмена
// прерывает пересборку до записи результата.
func (s *LeaderboardService) Rebuild(ctx context.Context) (int, error) {
	locked, err := s.cacheRepo.SetNX(leaderboardRebuildLockKey, time.Now().Unix(), leaderboardRebuildLockTTL)
	if err != nil {
		return 0, fmt.Errorf("не удалось взять блокировку пересборки: %w", err)
	}
	if !locked {
		return 0, fmt.Errorf("%w: leaderboard rebuild is already in progress", apperrors.ErrConflict)
	}
	defer func() {
		if err := s.cacheRepo.Delete(leaderboardRebuildLockKey); err != nil {
			log.Printf("[LeaderboardService] Не удалось снять блокировку пересборки: %v", err)
		}
	}()

	started := time.Now()
	log.Printf("[LeaderboardService] Запуск полной пересборки лидерборда")

	aggregates, err := s.submissionRepo.AggregateByUser()
	if err != nil {
		return 0, fmt.Errorf("не удалось агрегировать отправки: %w", err)
	}

	// Старые записи нужны для rank_change и денормализованных полей
	// пользователя: без них пересборка записала бы лидерборд с пустыми
	// именами, поэтому ошибка чтения фатальна
	existing, err := s.leaderboardRepo.ListAll()
	if err != nil {
		return 0, fmt.Errorf("не удалось прочитать текущий лидерборд: %w", err)
	}
	previousRanks := make(map[uint]int, len(existing))
	userDetails := make(map[uint]entity.LeaderboardEntry, len(existing))
	for i := range existing {
		previousRanks[existing[i].UserID] = existing[i].Rank
		userDetails[existing[i].UserID] = existing[i]
	}

	entries := make([]entity.LeaderboardEntry, 0, len(aggregates))
	for _, agg := range aggregates {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("пересборка лидерборда прервана: %w", err)
		}
		// Продлеваем блокировку: пересборка большой истории может идти
		// дольше начального TTL
		if err := s.cacheRepo.Set(leaderboardRebuildLockKey, time.Now().Unix(), leaderboardRebuildLockTTL); err != nil {
			log.Printf("[LeaderboardService] Не удалось продлить блокировку пересборки: %v", err)
		}

		dates, err := s.submissionRepo.GetSubmissionDates(agg.UserID)
		if err != nil {
			return 0, err
		}
		current, longest := scoring.StreakFromDates(dates)

		lastQuizDate := agg.LastQuizDate
		entries = append(entries, entity.LeaderboardEntry{
			UserID:         agg.UserID,
			TotalScore:     agg.TotalScore,
			TotalQuizzes:   agg.TotalQuizzes,
			AverageScore:   int(math.Round(agg.AverageScore)),
			BestScore:      agg.BestScore,
			TotalTimeSpent: agg.TotalTimeSpent,
			Achievements:   entity.AchievementList{},
			CurrentStreak:  current,
			LongestStreak:  longest,
			LastQuizDate:   &lastQuizDate,
		})
	}

	// Агрегаты пришли по возрастанию user_id, стабильная сортировка
	// сохраняет этот порядок при равных суммах баллов
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})
	for i := range entries {
		entries[i].Rank = i + 1
		if prev, ok := previousRanks[entries[i].UserID]; ok && prev > 0 {
			entries[i].PreviousRank = prev
			entries[i].RankChange = prev - entries[i].Rank
		}
		// Имя и email переносятся из прежней записи; записи без прежней
		// версии дозаполнит инкрементальный путь при следующей отправке
		if prev, ok := userDetails[entries[i].UserID]; ok {
			entries[i].Username = prev.Username
			entries[i].Email = prev.Email
		}
	}

	if err := s.leaderboardRepo.ReplaceAll(entries); err != nil {
		return 0, err
	}

	s.invalidateStatsCache()
	log.Printf("[LeaderboardService] Пересборка завершена: %d записей за %v", len(entries), time.Since(started))
	return len(entries), nil
}

// GetLeaderboard возвращает страницу лидерборда
func (s *LeaderboardService) GetLeaderboard(page, limit int, timeframe string) ([]entity.LeaderboardEntry, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var since *time.Time
	switch timeframe {
	case "", TimeframeAll:
	case TimeframeWeek:
		t := time.Now().AddDate(0, 0, -7)
		since = &t
	case TimeframeMonth:
		t := time.Now().AddDate(0, -1, 0)
		since = &t
	default:
		return nil, 0, fmt.Errorf("%w: unknown timeframe %q", apperrors.ErrValidation, timeframe)
	}

	return s.leaderboardRepo.List(limit, (page-1)*limit, since)
}

// GetUserRank возвращает запись пользователя и его текущую позицию.
// Позиция вычисляется по сумме баллов, не по сохранённому рангу: между
// пересборками сохранённый ранг может устареть.
func (s *LeaderboardService) GetUserRank(userID uint) (*UserRank, error) {
	entry, err := s.leaderboardRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	better, err := s.leaderboardRepo.CountBetterThan(entry.TotalScore)
	if err != nil {
		return nil, err
	}
	return &UserRank{Entry: entry, Rank: int(better) + 1}, nil
}

// GetUserAchievements возвращает достижения пользователя
func (s *LeaderboardService) GetUserAchievements(userID uint) ([]entity.Achievement, error) {
	entry, err := s.leaderboardRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Пользователь ещё не проходил викторин
			return []entity.Achievement{}, nil
		}
		return nil, err
	}
	return entry.Achievements, nil
}

// GetStats возвращает сводку по лидерборду (с коротким кешем)
func (s *LeaderboardService) GetStats() (*LeaderboardStats, error) {
	var cached LeaderboardStats
	if err := s.cacheRepo.GetJSON(leaderboardStatsCacheKey, &cached); err == nil {
		return &cached, nil
	}

	totals, err := s.leaderboardRepo.Totals()
	if err != nil {
		return nil, err
	}
	top, err := s.leaderboardRepo.TopPerformers(10)
	if err != nil {
		return nil, err
	}

	stats := &LeaderboardStats{
		TotalUsers:    totals.TotalUsers,
		TotalScore:    totals.TotalScore,
		AverageScore:  totals.AverageScore,
		TopPerformers: top,
	}
	if err := s.cacheRepo.SetJSON(leaderboardStatsCacheKey, stats, leaderboardStatsCacheTTL); err != nil {
		log.Printf("[LeaderboardService] Не удалось закешировать сводку: %v", err)
	}
	return stats, nil
}

// ListAll возвращает все записи лидерборда (для экспорта)
func (s *LeaderboardService) ListAll() ([]entity.LeaderboardEntry, error) {
	return s.leaderboardRepo.ListAll()
}

func (s *LeaderboardService) invalidateStatsCache() {
	if err := s.cacheRepo.Delete(leaderboardStatsCacheKey); err != nil {
		log.Printf("[LeaderboardService] Не удалось сбросить кеш сводки: %v", err)
	}
}
