package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Константы типов вопросов
const (
	QuestionTypeMultiple = "multiple"
	QuestionTypeBoolean  = "boolean"
)

// Константы сложности
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	// Обработка пустого массива байтов
	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
// Используется GORM для записи StringArray в JSONB в базе
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Question представляет вопрос викторины.
// Вопросы принадлежат викторине и не адресуются отдельно от неё;
// внешним идентификатором служит строковый QuestionID.
type Question struct {
	ID               uint        `gorm:"primaryKey" json:"-"`
	QuizID           uint        `gorm:"not null;index" json:"-"`
	QuestionID       string      `gorm:"size:64;not null;index" json:"question_id"`
	Text             string      `gorm:"size:1000;not null" json:"question"`
	Type             string      `gorm:"size:20;not null" json:"type"`
	Difficulty       string      `gorm:"size:20;not null" json:"difficulty"`
	Category         string      `gorm:"size:150;not null;default:''" json:"category"`
	CorrectAnswer    string      `gorm:"size:500;not null" json:"-"` // Скрыто от клиента
	IncorrectAnswers StringArray `gorm:"type:jsonb;not null" json:"-"`
	AllAnswers       StringArray `gorm:"type:jsonb;not null" json:"all_answers"`
	Points           int         `gorm:"not null;default:1" json:"points"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// PointsForDifficulty возвращает стоимость вопроса по его сложности:
// easy=1, medium=2, hard=3. Неизвестная сложность оценивается как easy.
func PointsForDifficulty(difficulty string) int {
	switch difficulty {
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 1
	}
}

// IsCorrect проверяет, совпадает ли ответ пользователя с правильным.
// Сравнение строгое: посимвольное, с учётом регистра и пробелов.
func (q *Question) IsCorrect(answer string) bool {
	return answer == q.CorrectAnswer
}

// AnswersCount возвращает количество вариантов ответа
func (q *Question) AnswersCount() int {
	return len(q.AllAnswers)
}
