package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestGinContext создает *gin.Context для тестов с JSON body
func newTestGinContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

// ============================================================================
// Request validation tests — не требуют реальных сервисов,
// handler возвращает 400 до вызова сервиса
// ============================================================================

func TestGenerateQuiz_ValidationErrors(t *testing.T) {
	handler := &QuizHandler{} // nil services — OK для validation tests

	tests := []struct {
		name string
		body interface{}
	}{
		{
			name: "empty body",
			body: nil,
		},
		{
			name: "amount above maximum",
			body: map[string]interface{}{"amount": 51},
		},
		{
			name: "unknown difficulty",
			body: map[string]interface{}{"difficulty": "impossible"},
		},
		{
			name: "unknown type",
			body: map[string]interface{}{"type": "essay"},
		},
		{
			name: "time limit above maximum",
			body: map[string]interface{}{"time_limit": 500},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(http.MethodPost, "/api/quizzes/generate", tt.body)
			handler.GenerateQuiz(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := parseJSONResponse(t, w)
			assert.Contains(t, resp, "error")
		})
	}
}

func TestSubmitQuiz_ValidationErrors(t *testing.T) {
	handler := &QuizHandler{}

	tests := []struct {
		name string
		body interface{}
	}{
		{
			name: "empty body",
			body: nil,
		},
		{
			name: "missing answers",
			body: map[string]interface{}{"time_taken": 120},
		},
		{
			name: "negative time taken",
			body: map[string]interface{}{
				"answers":    []map[string]string{{"question_id": "q_1", "answer": "x"}},
				"time_taken": -5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(http.MethodPost, "/api/quizzes/1/submit", tt.body)
			c.Set("quizID", uint(1))
			handler.SubmitQuiz(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := parseJSONResponse(t, w)
			assert.Contains(t, resp, "error")
		})
	}
}

func TestSubmitFeedback_ValidationErrors(t *testing.T) {
	handler := &QuizHandler{}

	tests := []struct {
		name string
		body interface{}
	}{
		{
			name: "missing rating",
			body: map[string]interface{}{"comment": "great quiz"},
		},
		{
			name: "rating above maximum",
			body: map[string]interface{}{"rating": 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(http.MethodPost, "/api/submissions/1/feedback", tt.body)
			c.Set("submissionID", uint(1))
			handler.SubmitFeedback(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := parseJSONResponse(t, w)
			assert.Contains(t, resp, "error")
		})
	}
}
