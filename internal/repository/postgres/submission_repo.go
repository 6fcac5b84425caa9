package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	"github.com/yourusername/quizhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
)

// SubmissionRepo реализует repository.SubmissionRepository
type SubmissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo создает новый репозиторий отправок
func NewSubmissionRepo(db *gorm.DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

// Create сохраняет отправку внутри переданной транзакции
func (r *SubmissionRepo) Create(tx *gorm.DB, submission *entity.Submission) error {
	return tx.Create(submission).Error
}

// GetByID возвращает отправку по ID
func (r *SubmissionRepo) GetByID(id uint) (*entity.Submission, error) {
	var submission entity.Submission
	err := r.db.First(&submission, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// GetUserSubmissions возвращает страницу отправок пользователя
func (r *SubmissionRepo) GetUserSubmissions(userID uint, filter repository.SubmissionFilter) ([]entity.Submission, int64, error) {
	query := r.db.Model(&entity.Submission{}).Where("user_id = ?", userID)

	if filter.QuizID != 0 {
		query = query.Where("quiz_id = ?", filter.QuizID)
	}
	if filter.MinPercentage > 0 {
		query = query.Where("percentage >= ?", filter.MinPercentage)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filter.SortBy
	switch sortBy {
	case "score", "percentage", "time_taken_sec", "created_at":
	default:
		sortBy = "created_at"
	}
	order := "DESC"
	if filter.SortOrder == "asc" {
		order = "ASC"
	}

	var submissions []entity.Submission
	err := query.Order(sortBy + " " + order).
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&submissions).Error
	if err != nil {
		return nil, 0, err
	}
	return submissions, total, nil
}

// HasSubmission проверяет, отправлял ли пользователь эту викторину
func (r *SubmissionRepo) HasSubmission(userID, quizID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Submission{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetQuizTop возвращает лучшие отправки викторины: сперва по проценту
// по убыванию, при равенстве - по затраченному времени по возрастанию
func (r *SubmissionRepo) GetQuizTop(quizID uint, limit int) ([]entity.Submission, error) {
	var submissions []entity.Submission
	err := r.db.Where("quiz_id = ?", quizID).
		Order("percentage DESC, time_taken_sec ASC").
		Limit(limit).
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

// GetQuizStats возвращает детальную статистику отправок по викторине
func (r *SubmissionRepo) GetQuizStats(quizID uint) (*repository.QuizSubmissionStats, error) {
	var stats repository.QuizSubmissionStats
	err := r.db.Model(&entity.Submission{}).
		Select(`COUNT(*) AS total_attempts,
			COALESCE(AVG(percentage), 0) AS average_score,
			COALESCE(MAX(percentage), 0) AS highest_score,
			COALESCE(MIN(percentage), 0) AS lowest_score,
			COALESCE(AVG(time_taken_sec), 0) AS average_time_sec`).
		Where("quiz_id = ?", quizID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// UpdateFeedback сохраняет отзыв пользователя об отправке
func (r *SubmissionRepo) UpdateFeedback(submissionID uint, rating int, comment string) error {
	result := r.db.Model(&entity.Submission{}).Where("id = ?", submissionID).Updates(map[string]interface{}{
		"feedback_rating":  rating,
		"feedback_comment": comment,
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

// MarkEmailSent отмечает, что письмо с результатами отправлено
func (r *SubmissionRepo) MarkEmailSent(submissionID uint, sentAt time.Time) error {
	return r.db.Model(&entity.Submission{}).Where("id = ?", submissionID).Updates(map[string]interface{}{
		"email_sent":    true,
		"email_sent_at": sentAt,
	}).Error
}

// AggregateByUser группирует всю историю отправок по пользователям.
// Порядок по user_id фиксирует разрешение ничьих при последующей
// стабильной сортировке лидерборда.
func (r *SubmissionRepo) AggregateByUser() ([]repository.UserAggregate, error) {
	var aggregates []repository.UserAggregate
	err := r.db.Model(&entity.Submission{}).
		Select(`user_id,
			COALESCE(SUM(score), 0) AS total_score,
			COUNT(*) AS total_quizzes,
			COALESCE(AVG(percentage), 0) AS average_score,
			COALESCE(MAX(percentage), 0) AS best_score,
			COALESCE(SUM(time_taken_sec), 0) AS total_time_spent,
			MAX(created_at) AS last_quiz_date`).
		Group("user_id").
		Order("user_id ASC").
		Scan(&aggregates).Error
	if err != nil {
		return nil, err
	}
	return aggregates, nil
}

// GetSubmissionDates возвращает даты создания отправок пользователя по возрастанию
func (r *SubmissionRepo) GetSubmissionDates(userID uint) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.Model(&entity.Submission{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("created_at", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}
