package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByIDs(ids []uint) ([]entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetByUsername(username string) (*entity.User, error)
	Update(user *entity.User) error
	UpdateProfile(userID uint, updates map[string]interface{}) error
	UpdateLastLogin(userID uint) error
	// ApplySubmissionStats атомарно включает результат одной отправки в
	// накопительную статистику пользователя. Выполняется одним UPDATE-выражением
	// внутри переданной транзакции: total_quizzes += 1, total_score += score,
	// average_score = round(total_score / total_quizzes),
	// best_score = max(best_score, percentage).
	ApplySubmissionStats(tx *gorm.DB, userID uint, score, percentage int) error
}
