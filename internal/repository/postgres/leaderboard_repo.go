package postgres

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	"github.com/yourusername/quizhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
)

// LeaderboardRepo реализует repository.LeaderboardRepository
type LeaderboardRepo struct {
	db *gorm.DB
}

// NewLeaderboardRepo создает новый репозиторий лидерборда
func NewLeaderboardRepo(db *gorm.DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

// GetByUserID возвращает запись лидерборда пользователя
func (r *LeaderboardRepo) GetByUserID(userID uint) (*entity.LeaderboardEntry, error) {
	var entry entity.LeaderboardEntry
	err := r.db.Where("user_id = ?", userID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Create создает новую запись лидерборда
func (r *LeaderboardRepo) Create(entry *entity.LeaderboardEntry) error {
	return r.db.Create(entry).Error
}

// ApplySubmission атомарно включает одну отправку в существующую запись.
// Инкременты и среднее вычисляются над значениями колонок ДО обновления,
// поэтому параллельные отправки не затирают друг друга.
func (r *LeaderboardRepo) ApplySubmission(userID uint, score, percentage, timeTakenSec int, submittedAt time.Time, streak, longestStreak int) error {
	result := r.db.Model(&entity.LeaderboardEntry{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"total_score":      gorm.Expr("total_score + ?", score),
		"total_quizzes":    gorm.Expr("total_quizzes + 1"),
		"average_score":    gorm.Expr("ROUND((average_score * total_quizzes + ?)::numeric / (total_quizzes + 1))", percentage),
		"best_score":       gorm.Expr("GREATEST(best_score, ?)", percentage),
		"total_time_spent": gorm.Expr("total_time_spent + ?", timeTakenSec),
		"last_quiz_date":   submittedAt,
		"current_streak":   streak,
		"longest_streak":   longestStreak,
		"updated_at":       time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AppendAchievements дописывает новые достижения к записи пользователя.
// Дубликаты по типу отфильтровываются, уже выданные достижения не меняются.
func (r *LeaderboardRepo) AppendAchievements(userID uint, achievements []entity.Achievement) error {
	if len(achievements) == 0 {
		return nil
	}

	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			log.Printf("[LeaderboardRepo] Паника при дописывании достижений пользователя %d: %v", userID, rec)
		}
	}()

	var entry entity.LeaderboardEntry
	if err := tx.Where("user_id = ?", userID).First(&entry).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return err
	}

	merged := entry.Achievements
	for _, ach := range achievements {
		if !merged.Contains(ach.Type) {
			merged = append(merged, ach)
		}
	}

	if err := tx.Model(&entity.LeaderboardEntry{}).Where("user_id = ?", userID).
		Update("achievements", merged).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// List возвращает страницу лидерборда по возрастанию ранга
func (r *LeaderboardRepo) List(limit, offset int, since *time.Time) ([]entity.LeaderboardEntry, int64, error) {
	query := r.db.Model(&entity.LeaderboardEntry{})
	if since != nil {
		query = query.Where("last_quiz_date >= ?", *since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []entity.LeaderboardEntry
	err := query.Order("rank ASC").Limit(limit).Offset(offset).Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListAll возвращает все записи лидерборда по возрастанию ранга
func (r *LeaderboardRepo) ListAll() ([]entity.LeaderboardEntry, error) {
	var entries []entity.LeaderboardEntry
	if err := r.db.Order("rank ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountBetterThan возвращает число записей с суммой баллов строго больше заданной
func (r *LeaderboardRepo) CountBetterThan(totalScore int) (int64, error) {
	var count int64
	err := r.db.Model(&entity.LeaderboardEntry{}).
		Where("total_score > ?", totalScore).
		Count(&count).Error
	return count, err
}

// TopPerformers возвращает первые записи лидерборда
func (r *LeaderboardRepo) TopPerformers(limit int) ([]entity.LeaderboardEntry, error) {
	var entries []entity.LeaderboardEntry
	err := r.db.Order("rank ASC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Totals возвращает сводные показатели по всему лидерборду
func (r *LeaderboardRepo) Totals() (*repository.LeaderboardTotals, error) {
	var totals repository.LeaderboardTotals
	err := r.db.Model(&entity.LeaderboardEntry{}).
		Select(`COUNT(*) AS total_users,
			COALESCE(SUM(total_score), 0) AS total_score,
			COALESCE(AVG(average_score), 0) AS average_score`).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// ReplaceAll заменяет весь набор записей лидерборда в одной транзакции.
// Перед удалением старые списки достижений вычитываются и сливаются в новые
// записи по user_id: пересборка не может потерять выданные достижения.
func (r *LeaderboardRepo) ReplaceAll(entries []entity.LeaderboardEntry) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			log.Printf("[LeaderboardRepo] Паника при пересборке лидерборда: %v", rec)
		}
	}()

	var existing []entity.LeaderboardEntry
	if err := tx.Select("user_id", "achievements").Find(&existing).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("не удалось прочитать текущие записи лидерборда: %w", err)
	}
	preserved := make(map[uint]entity.AchievementList, len(existing))
	for i := range existing {
		preserved[existing[i].UserID] = existing[i].Achievements
	}

	if err := tx.Exec("DELETE FROM leaderboard_entries").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("не удалось очистить лидерборд: %w", err)
	}

	for i := range entries {
		kept := preserved[entries[i].UserID]
		for _, ach := range entries[i].Achievements {
			if !kept.Contains(ach.Type) {
				kept = append(kept, ach)
			}
		}
		entries[i].Achievements = kept
	}

	if len(entries) > 0 {
		if err := tx.Create(&entries).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("не удалось записать пересобранный лидерборд: %w", err)
		}
	}

	return tx.Commit().Error
}
