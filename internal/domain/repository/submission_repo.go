package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
)

// SubmissionFilter описывает параметры выборки отправок пользователя
type SubmissionFilter struct {
	QuizID        uint
	MinPercentage int
	SortBy        string
	SortOrder     string
	Limit         int
	Offset        int
}

// UserAggregate - агрегат истории отправок одного пользователя.
// Используется пересборкой лидерборда.
type UserAggregate struct {
	UserID         uint
	TotalScore     int
	TotalQuizzes   int
	AverageScore   float64 // среднее значение percentage, без округления
	BestScore      int
	TotalTimeSpent int
	LastQuizDate   time.Time
}

// QuizSubmissionStats - детальная статистика отправок по викторине
type QuizSubmissionStats struct {
	TotalAttempts  int
	AverageScore   float64
	HighestScore   int
	LowestScore    int
	AverageTimeSec float64
}

// SubmissionRepository определяет методы для работы с отправками
type SubmissionRepository interface {
	// Create сохраняет отправку внутри переданной транзакции
	Create(tx *gorm.DB, submission *entity.Submission) error
	GetByID(id uint) (*entity.Submission, error)
	GetUserSubmissions(userID uint, filter SubmissionFilter) ([]entity.Submission, int64, error)
	HasSubmission(userID, quizID uint) (bool, error)
	// GetQuizTop возвращает лучшие отправки викторины:
	// по проценту по убыванию, при равенстве - по времени прохождения
	GetQuizTop(quizID uint, limit int) ([]entity.Submission, error)
	GetQuizStats(quizID uint) (*QuizSubmissionStats, error)
	UpdateFeedback(submissionID uint, rating int, comment string) error
	MarkEmailSent(submissionID uint, sentAt time.Time) error
	// AggregateByUser группирует всю историю отправок по пользователям.
	// Результат упорядочен по user_id по возрастанию - этот порядок
	// фиксирует разрешение ничьих при стабильной сортировке лидерборда.
	AggregateByUser() ([]UserAggregate, error)
	// GetSubmissionDates возвращает даты создания отправок пользователя
	// по возрастанию. Используется для пересчёта серий (streak).
	GetSubmissionDates(userID uint) ([]time.Time, error)
}
