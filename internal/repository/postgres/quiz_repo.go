package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	"github.com/yourusername/quizhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create создает викторину вместе с вопросами
func (r *QuizRepo) Create(quiz *entity.Quiz) error {
	return r.db.Create(quiz).Error
}

// GetByID возвращает викторину без вопросов
func (r *QuizRepo) GetByID(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetWithQuestions возвращает викторину вместе с её вопросами
func (r *QuizRepo) GetWithQuestions(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.Preload("Questions").First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// UpdateSettings обновляет настройки викторины
func (r *QuizRepo) UpdateSettings(quizID uint, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&entity.Quiz{}).Where("id = ?", quizID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Deactivate помечает викторину неактивной (мягкое удаление)
func (r *QuizRepo) Deactivate(quizID uint) error {
	result := r.db.Model(&entity.Quiz{}).Where("id = ?", quizID).Updates(map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListPublic возвращает страницу публичных активных викторин
func (r *QuizRepo) ListPublic(filter repository.QuizFilter) ([]entity.Quiz, int64, error) {
	query := r.db.Model(&entity.Quiz{}).Where("is_public = ? AND is_active = ?", true, true)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filter.SortBy
	switch sortBy {
	case "title", "category", "difficulty", "created_at":
	case "attempts":
		sortBy = "stat_total_attempts"
	default:
		sortBy = "created_at"
	}
	order := "DESC"
	if filter.SortOrder == "asc" {
		order = "ASC"
	}

	var quizzes []entity.Quiz
	err := query.Order(sortBy + " " + order).
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

// ListByCreator возвращает викторины, созданные пользователем
func (r *QuizRepo) ListByCreator(creatorID uint, onlyActive bool, limit, offset int) ([]entity.Quiz, int64, error) {
	query := r.db.Model(&entity.Quiz{}).Where("created_by = ?", creatorID)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quizzes []entity.Quiz
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

// ApplySubmissionStats атомарно включает процент одной отправки в статистику
// викторины. Среднее пересчитывается как взвешенное по значениям колонок
// ДО обновления: round((avg * attempts + pct) / (attempts + 1)).
func (r *QuizRepo) ApplySubmissionStats(tx *gorm.DB, quizID uint, percentage int) error {
	result := tx.Model(&entity.Quiz{}).Where("id = ?", quizID).Updates(map[string]interface{}{
		"stat_total_attempts": gorm.Expr("stat_total_attempts + 1"),
		"stat_average_score":  gorm.Expr("ROUND((stat_average_score * stat_total_attempts + ?)::numeric / (stat_total_attempts + 1))", percentage),
		"stat_highest_score":  gorm.Expr("GREATEST(stat_highest_score, ?)", percentage),
		"updated_at":          time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
