package dto

import (
	"time"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
)

// QuestionResponse - вопрос в форме, безопасной для выдачи клиенту:
// правильный ответ не включается
type QuestionResponse struct {
	QuestionID string   `json:"question_id"`
	Text       string   `json:"question"`
	Type       string   `json:"type"`
	Difficulty string   `json:"difficulty"`
	Category   string   `json:"category"`
	AllAnswers []string `json:"all_answers"`
	Points     int      `json:"points"`
}

// QuizResponse - викторина в форме ответа API
type QuizResponse struct {
	ID             uint                `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Category       string              `json:"category"`
	Difficulty     string              `json:"difficulty"`
	Type           string              `json:"type"`
	TotalQuestions int                 `json:"total_questions"`
	TimeLimitMin   int                 `json:"time_limit"`
	TotalMarks     int                 `json:"total_marks"`
	IsActive       bool                `json:"is_active"`
	IsPublic       bool                `json:"is_public"`
	Tags           []string            `json:"tags"`
	Settings       entity.QuizSettings `json:"settings"`
	Stats          entity.QuizStats    `json:"stats"`
	Questions      []QuestionResponse  `json:"questions,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// NewQuizResponse преобразует сущность в ответ API.
// includeQuestions управляет включением списка вопросов (без правильных ответов).
func NewQuizResponse(quiz *entity.Quiz, includeQuestions bool) *QuizResponse {
	resp := &QuizResponse{
		ID:             quiz.ID,
		Title:          quiz.Title,
		Description:    quiz.Description,
		Category:       quiz.Category,
		Difficulty:     quiz.Difficulty,
		Type:           quiz.Type,
		TotalQuestions: quiz.TotalQuestions,
		TimeLimitMin:   quiz.TimeLimitMin,
		TotalMarks:     quiz.TotalMarks,
		IsActive:       quiz.IsActive,
		IsPublic:       quiz.IsPublic,
		Tags:           quiz.Tags,
		Settings:       quiz.Settings,
		Stats:          quiz.Stats,
		CreatedAt:      quiz.CreatedAt,
	}
	if includeQuestions {
		resp.Questions = make([]QuestionResponse, 0, len(quiz.Questions))
		for i := range quiz.Questions {
			q := &quiz.Questions[i]
			resp.Questions = append(resp.Questions, QuestionResponse{
				QuestionID: q.QuestionID,
				Text:       q.Text,
				Type:       q.Type,
				Difficulty: q.Difficulty,
				Category:   q.Category,
				AllAnswers: q.AllAnswers,
				Points:     q.Points,
			})
		}
	}
	return resp
}

// QuizListResponse - страница викторин
type QuizListResponse struct {
	Quizzes []QuizResponse `json:"quizzes"`
	Total   int64          `json:"total"`
}

// NewQuizListResponse преобразует список сущностей в страницу ответа API
func NewQuizListResponse(quizzes []entity.Quiz, total int64) *QuizListResponse {
	resp := &QuizListResponse{
		Quizzes: make([]QuizResponse, 0, len(quizzes)),
		Total:   total,
	}
	for i := range quizzes {
		resp.Quizzes = append(resp.Quizzes, *NewQuizResponse(&quizzes[i], false))
	}
	return resp
}
