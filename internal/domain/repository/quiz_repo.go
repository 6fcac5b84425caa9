package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
)

// QuizFilter описывает параметры выборки публичных викторин
type QuizFilter struct {
	Category   string
	Difficulty string
	Search     string
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	Create(quiz *entity.Quiz) error
	GetByID(id uint) (*entity.Quiz, error)
	// GetWithQuestions возвращает викторину вместе с её вопросами
	// (включая правильные ответы; не для выдачи клиенту)
	GetWithQuestions(id uint) (*entity.Quiz, error)
	UpdateSettings(quizID uint, updates map[string]interface{}) error
	Deactivate(quizID uint) error
	ListPublic(filter QuizFilter) ([]entity.Quiz, int64, error)
	ListByCreator(creatorID uint, onlyActive bool, limit, offset int) ([]entity.Quiz, int64, error)
	// ApplySubmissionStats атомарно включает процент одной отправки в статистику
	// викторины одним UPDATE-выражением внутри переданной транзакции:
	// total_attempts += 1,
	// average_score = round((average_score * (total_attempts - 1) + percentage) / total_attempts),
	// highest_score = max(highest_score, percentage).
	// В среднее входит именно процент, не сырой балл.
	ApplySubmissionStats(tx *gorm.DB, quizID uint, percentage int) error
}
