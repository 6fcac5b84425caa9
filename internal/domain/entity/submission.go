package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
	"time"
)

// Константы статусов отправки
const (
	SubmissionStatusCompleted = "completed"
	SubmissionStatusTimeout   = "timeout"
	SubmissionStatusAbandoned = "abandoned"
)

// Answer представляет проверенный ответ на один вопрос в составе отправки.
// Пропущенный вопрос хранится с пустым UserAnswer.
type Answer struct {
	QuestionID    string `json:"question_id"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Points        int    `json:"points"`
	TimeSpentSec  int    `json:"time_spent"`
}

// IsSkipped возвращает true, если пользователь не дал ответа
func (a Answer) IsSkipped() bool {
	return a.UserAnswer == ""
}

// AnswerList - пользовательский тип для хранения ответов в JSONB
type AnswerList []Answer

// Scan реализует интерфейс sql.Scanner для AnswerList
func (o *AnswerList) Scan(value interface{}) error {
	if value == nil {
		*o = AnswerList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = AnswerList{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для AnswerList
func (o AnswerList) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Submission представляет результат прохождения викторины.
// Производные поля (score, percentage, счётчики, grade, performance)
// вычисляются один раз при создании и после сохранения не пересчитываются.
type Submission struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index;index:idx_submissions_user_quiz" json:"user_id"`
	QuizID           uint       `gorm:"not null;index;index:idx_submissions_user_quiz" json:"quiz_id"`
	Answers          AnswerList `gorm:"type:jsonb;not null" json:"answers"`
	Score            int        `gorm:"not null;default:0" json:"score"`
	TotalMarks       int        `gorm:"not null" json:"total_marks"`
	Percentage       int        `gorm:"not null;default:0;index" json:"percentage"`
	CorrectAnswers   int        `gorm:"not null;default:0" json:"correct_answers"`
	IncorrectAnswers int        `gorm:"not null;default:0" json:"incorrect_answers"`
	SkippedAnswers   int        `gorm:"not null;default:0" json:"skipped_answers"`
	TimeTakenSec     int        `gorm:"not null" json:"time_taken"`
	TimeLimitSec     int        `gorm:"not null" json:"time_limit"`
	StartTime        time.Time  `gorm:"not null" json:"start_time"`
	EndTime          time.Time  `gorm:"not null" json:"end_time"`
	Status           string     `gorm:"size:20;not null;default:'completed'" json:"status"`
	FeedbackRating   *int       `json:"feedback_rating,omitempty"`
	FeedbackComment  string     `gorm:"size:500;not null;default:''" json:"feedback_comment,omitempty"`
	EmailSent        bool       `gorm:"not null;default:false" json:"email_sent"`
	EmailSentAt      *time.Time `json:"email_sent_at,omitempty"`
	IPAddress        string     `gorm:"size:45;not null;default:''" json:"-"`
	UserAgent        string     `gorm:"size:255;not null;default:''" json:"-"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Submission) TableName() string {
	return "submissions"
}

// GradeForPercentage возвращает буквенную оценку по проценту
func GradeForPercentage(percentage int) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B"
	case percentage >= 60:
		return "C"
	case percentage >= 50:
		return "D"
	default:
		return "F"
	}
}

// PerformanceForPercentage возвращает уровень результата по проценту.
// Пороги совпадают с порогами буквенных оценок.
func PerformanceForPercentage(percentage int) string {
	switch {
	case percentage >= 90:
		return "Excellent"
	case percentage >= 80:
		return "Very Good"
	case percentage >= 70:
		return "Good"
	case percentage >= 60:
		return "Average"
	case percentage >= 50:
		return "Below Average"
	default:
		return "Poor"
	}
}

// Grade возвращает буквенную оценку отправки
func (s *Submission) Grade() string {
	return GradeForPercentage(s.Percentage)
}

// Performance возвращает уровень результата отправки
func (s *Submission) Performance() string {
	return PerformanceForPercentage(s.Percentage)
}

// TimeEfficiency возвращает долю использованного времени в процентах от лимита
func (s *Submission) TimeEfficiency() int {
	if s.TimeLimitSec <= 0 {
		return 0
	}
	return int(math.Round(float64(s.TimeTakenSec) / float64(s.TimeLimitSec) * 100))
}
