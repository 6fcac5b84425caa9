package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizhub-api/internal/config"
	"github.com/yourusername/quizhub-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
)

// newTriviaServiceForTest поднимает тестовый HTTP-сервер с фиксированным
// ответом и возвращает клиент, направленный на него
func newTriviaServiceForTest(t *testing.T, status int, body string) (*TriviaService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	svc := NewTriviaService(config.TriviaConfig{
		BaseURL:       server.URL,
		CategoriesURL: server.URL,
		TimeoutSec:    5,
	})
	return svc, server
}

func TestFetchQuestions_ConvertsQuestions(t *testing.T) {
	body := `{
		"response_code": 0,
		"results": [
			{
				"category": "Science &amp; Nature",
				"type": "multiple",
				"difficulty": "hard",
				"question": "What is the chemical symbol for tungsten?",
				"correct_answer": "W",
				"incorrect_answers": ["T", "Tu", "Tg"]
			},
			{
				"category": "General Knowledge",
				"type": "boolean",
				"difficulty": "easy",
				"question": "The sky is blue. True or false?",
				"correct_answer": "True",
				"incorrect_answers": ["False"]
			}
		]
	}`
	svc, _ := newTriviaServiceForTest(t, http.StatusOK, body)

	questions, err := svc.FetchQuestions(context.Background(), TriviaParams{Amount: 2})
	require.NoError(t, err)
	require.Len(t, questions, 2)

	q := questions[0]
	// HTML-сущности декодируются
	assert.Equal(t, "Science & Nature", q.Category)
	assert.Equal(t, "W", q.CorrectAnswer)
	assert.Equal(t, entity.StringArray{"T", "Tu", "Tg"}, q.IncorrectAnswers)
	// Стоимость выводится из сложности
	assert.Equal(t, 3, q.Points)
	assert.Equal(t, 1, questions[1].Points)

	// Все варианты присутствуют, правильный - среди них
	assert.Len(t, q.AllAnswers, 4)
	assert.Contains(t, q.AllAnswers, "W")

	// Внутренние идентификаторы вопросов уникальны и непусты
	assert.NotEmpty(t, q.QuestionID)
	assert.NotEqual(t, questions[0].QuestionID, questions[1].QuestionID)
}

func TestFetchQuestions_ResponseCodes(t *testing.T) {
	tests := []struct {
		name         string
		responseCode int
		wantErr      error
	}{
		{"недостаточно вопросов", 1, apperrors.ErrValidation},
		{"некорректные параметры", 2, apperrors.ErrValidation},
		{"ошибка сессии", 3, nil},
		{"превышен лимит запросов", 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTriviaServiceForTest(t, http.StatusOK,
				`{"response_code": `+strconv.Itoa(tt.responseCode)+`, "results": []}`)

			_, err := svc.FetchQuestions(context.Background(), TriviaParams{Amount: 10})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestFetchQuestions_HTTPError(t *testing.T) {
	svc, _ := newTriviaServiceForTest(t, http.StatusServiceUnavailable, "")

	_, err := svc.FetchQuestions(context.Background(), TriviaParams{Amount: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestGetCategories(t *testing.T) {
	body := `{"trivia_categories": [{"id": 9, "name": "General Knowledge"}, {"id": 17, "name": "Science & Nature"}]}`
	svc, _ := newTriviaServiceForTest(t, http.StatusOK, body)

	categories, err := svc.GetCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, 9, categories[0].ID)
	assert.Equal(t, "General Knowledge", categories[0].Name)
}
