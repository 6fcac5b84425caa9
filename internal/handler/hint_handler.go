package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizhub-api/internal/service"
)

// HintHandler обрабатывает запросы AI-подсказок.
// Обработчики не возвращают ошибок внешнего API: сервис сам подставляет
// заготовленные тексты с типом "fallback".
type HintHandler struct {
	hintService *service.HintService
}

// NewHintHandler создает новый обработчик подсказок
func NewHintHandler(hintService *service.HintService) *HintHandler {
	return &HintHandler{hintService: hintService}
}

// HintRequest представляет запрос подсказки к вопросу
type HintRequest struct {
	Question      string `json:"question" binding:"required,max=1000"`
	Category      string `json:"category" binding:"omitempty,max=150"`
	Difficulty    string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	CorrectAnswer string `json:"correct_answer" binding:"required,max=500"`
	Level         string `json:"level" binding:"omitempty,oneof=subtle moderate strong"`
	Multiple      bool   `json:"multiple"`
}

// GetHint возвращает подсказку (или три подсказки разных уровней)
func (h *HintHandler) GetHint(c *gin.Context) {
	var req HintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Multiple {
		hints := h.hintService.GenerateMultipleHints(c.Request.Context(), req.Question, req.Category, req.Difficulty, req.CorrectAnswer)
		c.JSON(http.StatusOK, gin.H{"hints": hints})
		return
	}

	hint := h.hintService.GenerateHint(c.Request.Context(), req.Question, req.Category, req.Difficulty, req.CorrectAnswer, req.Level)
	c.JSON(http.StatusOK, hint)
}

// ExplanationRequest представляет запрос объяснения ответа
type ExplanationRequest struct {
	Question      string `json:"question" binding:"required,max=1000"`
	CorrectAnswer string `json:"correct_answer" binding:"required,max=500"`
	UserAnswer    string `json:"user_answer" binding:"omitempty,max=500"`
	IsCorrect     bool   `json:"is_correct"`
}

// GetExplanation объясняет, почему ответ верен или неверен
func (h *HintHandler) GetExplanation(c *gin.Context) {
	var req ExplanationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	explanation := h.hintService.GenerateExplanation(c.Request.Context(), req.Question, req.CorrectAnswer, req.UserAnswer, req.IsCorrect)
	c.JSON(http.StatusOK, explanation)
}

// StudySuggestionsRequest представляет запрос учебных рекомендаций
type StudySuggestionsRequest struct {
	Question   string `json:"question" binding:"required,max=1000"`
	Category   string `json:"category" binding:"omitempty,max=150"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	UserAnswer string `json:"user_answer" binding:"omitempty,max=500"`
	IsCorrect  bool   `json:"is_correct"`
}

// GetStudySuggestions возвращает персональные учебные рекомендации
func (h *HintHandler) GetStudySuggestions(c *gin.Context) {
	var req StudySuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestions := h.hintService.GenerateStudySuggestions(c.Request.Context(), req.Question, req.Category, req.Difficulty, req.UserAnswer, req.IsCorrect)
	c.JSON(http.StatusOK, suggestions)
}
