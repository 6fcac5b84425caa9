package entity

import (
	"time"

	"gorm.io/gorm"
)

// Значение "mixed" допустимо для сложности и типа викторины в целом,
// но не для отдельного вопроса.
const (
	QuizDifficultyMixed = "mixed"
	QuizTypeMixed       = "mixed"
)

// QuizSettings содержит настройки прохождения викторины
type QuizSettings struct {
	ShowCorrectAnswers bool `gorm:"not null;default:true" json:"show_correct_answers"`
	RandomizeQuestions bool `gorm:"not null;default:true" json:"randomize_questions"`
	RandomizeAnswers   bool `gorm:"not null;default:true" json:"randomize_answers"`
	AllowRetake        bool `gorm:"not null;default:true" json:"allow_retake"`
}

// QuizStats содержит агрегированную статистику попыток.
// AverageScore и HighestScore хранятся в процентах, не в сырых баллах.
type QuizStats struct {
	TotalAttempts int `gorm:"not null;default:0" json:"total_attempts"`
	AverageScore  int `gorm:"not null;default:0" json:"average_score"`
	HighestScore  int `gorm:"not null;default:0" json:"highest_score"`
}

// Quiz представляет викторину
type Quiz struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	Title          string       `gorm:"size:150;not null" json:"title"`
	Description    string       `gorm:"size:500;not null;default:''" json:"description"`
	Category       string       `gorm:"size:150;not null;index" json:"category"`
	Difficulty     string       `gorm:"size:20;not null;default:'mixed';index" json:"difficulty"`
	Type           string       `gorm:"size:20;not null;default:'multiple'" json:"type"`
	TotalQuestions int          `gorm:"not null;default:0" json:"total_questions"`
	TimeLimitMin   int          `gorm:"not null;default:30" json:"time_limit"`
	TotalMarks     int          `gorm:"not null;default:0" json:"total_marks"`
	CreatedBy      uint         `gorm:"not null;index" json:"created_by"`
	IsActive       bool         `gorm:"not null;default:true;index" json:"is_active"`
	IsPublic       bool         `gorm:"not null;default:true;index" json:"is_public"`
	Tags           StringArray  `gorm:"type:jsonb;not null" json:"tags"`
	Settings       QuizSettings `gorm:"embedded;embeddedPrefix:setting_" json:"settings"`
	Stats          QuizStats    `gorm:"embedded;embeddedPrefix:stat_" json:"stats"`
	Questions      []Question   `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// RecalculateTotalMarks пересчитывает сумму баллов по вопросам.
// Инвариант: total_marks равен сумме стоимостей всех вопросов викторины.
func (q *Quiz) RecalculateTotalMarks() {
	total := 0
	for i := range q.Questions {
		total += q.Questions[i].Points
	}
	q.TotalMarks = total
}

// BeforeSave поддерживает инварианты total_marks и total_questions
// при любом изменении состава вопросов
func (q *Quiz) BeforeSave(tx *gorm.DB) error {
	if len(q.Questions) > 0 {
		q.RecalculateTotalMarks()
		q.TotalQuestions = len(q.Questions)
	}
	return nil
}

// TimeLimitSeconds возвращает лимит времени прохождения в секундах
func (q *Quiz) TimeLimitSeconds() int {
	return q.TimeLimitMin * 60
}

// AvgTimePerQuestionSec возвращает среднее время на вопрос в секундах
func (q *Quiz) AvgTimePerQuestionSec() int {
	if q.TotalQuestions == 0 {
		return 0
	}
	return q.TimeLimitSeconds() / q.TotalQuestions
}
