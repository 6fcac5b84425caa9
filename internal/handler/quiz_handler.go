package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	"github.com/yourusername/quizhub-api/internal/domain/repository"
	"github.com/yourusername/quizhub-api/internal/handler/dto"
	"github.com/yourusername/quizhub-api/internal/middleware"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
	"github.com/yourusername/quizhub-api/internal/service"
	"github.com/yourusername/quizhub-api/internal/service/scoring"
)

// QuizHandler обрабатывает запросы викторин и отправок
type QuizHandler struct {
	quizService       *service.QuizService
	submissionService *service.SubmissionService
}

// NewQuizHandler создает новый обработчик викторин
func NewQuizHandler(quizService *service.QuizService, submissionService *service.SubmissionService) *QuizHandler {
	return &QuizHandler{
		quizService:       quizService,
		submissionService: submissionService,
	}
}

// GetCategories возвращает категории внешнего источника вопросов
func (h *QuizHandler) GetCategories(c *gin.Context) {
	categories, err := h.quizService.GetCategories(c.Request.Context())
	if err != nil {
		h.handleQuizError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GenerateQuizRequest представляет запрос на генерацию викторины
type GenerateQuizRequest struct {
	Title        string               `json:"title" binding:"omitempty,max=150"`
	Description  string               `json:"description" binding:"omitempty,max=500"`
	Category     int                  `json:"category" binding:"omitempty,min=1"`
	Amount       int                  `json:"amount" binding:"omitempty,min=1,max=50"`
	Difficulty   string               `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Type         string               `json:"type" binding:"omitempty,oneof=multiple boolean"`
	TimeLimitMin int                  `json:"time_limit" binding:"omitempty,min=1,max=180"`
	IsPublic     *bool                `json:"is_public"`
	Tags         []string             `json:"tags" binding:"omitempty,max=10"`
	Settings     *entity.QuizSettings `json:"settings"`
}

// GenerateQuiz создает викторину из вопросов внешнего источника
func (h *QuizHandler) GenerateQuiz(c *gin.Context) {
	var req GenerateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	quiz, err := h.quizService.GenerateQuiz(c.Request.Context(), middleware.CurrentUserID(c), service.GenerateQuizParams{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Amount:       req.Amount,
		Difficulty:   req.Difficulty,
		Type:         req.Type,
		TimeLimitMin: req.TimeLimitMin,
		IsPublic:     isPublic,
		Tags:         req.Tags,
		Settings:     req.Settings,
	})
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuizResponse(quiz, true))
}

// ListPublic возвращает страницу публичных викторин
// GET /api/quizzes?category=&difficulty=&search=&sort_by=&sort_order=&page=&limit=
func (h *QuizHandler) ListPublic(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}

	quizzes, total, err := h.quizService.ListPublic(repository.QuizFilter{
		Category:   c.Query("category"),
		Difficulty: c.Query("difficulty"),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizListResponse(quizzes, total))
}

// ListCreated возвращает викторины текущего пользователя
func (h *QuizHandler) ListCreated(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}

	quizzes, total, err := h.quizService.ListCreated(middleware.CurrentUserID(c), limit, (page-1)*limit)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizListResponse(quizzes, total))
}

// GetQuiz возвращает викторину с вопросами для прохождения
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint) // Получаем из контекста

	quiz, err := h.quizService.GetQuizForTaking(quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, true))
}

// DeleteQuiz деактивирует викторину
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	err := h.quizService.DeleteQuiz(quizID, middleware.CurrentUserID(c), middleware.IsAdminRequest(c))
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quiz deleted"})
}

// UpdateSettingsRequest представляет запрос на изменение настроек викторины
type UpdateSettingsRequest struct {
	ShowCorrectAnswers bool `json:"show_correct_answers"`
	RandomizeQuestions bool `json:"randomize_questions"`
	RandomizeAnswers   bool `json:"randomize_answers"`
	AllowRetake        bool `json:"allow_retake"`
}

// UpdateSettings изменяет настройки викторины
func (h *QuizHandler) UpdateSettings(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.quizService.UpdateSettings(quizID, middleware.CurrentUserID(c), middleware.IsAdminRequest(c), entity.QuizSettings{
		ShowCorrectAnswers: req.ShowCorrectAnswers,
		RandomizeQuestions: req.RandomizeQuestions,
		RandomizeAnswers:   req.RandomizeAnswers,
		AllowRetake:        req.AllowRetake,
	})
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Settings updated"})
}

// SubmittedAnswerRequest - один ответ в составе отправки
type SubmittedAnswerRequest struct {
	QuestionID   string `json:"question_id" binding:"required"`
	Answer       string `json:"answer"`
	TimeSpentSec int    `json:"time_spent" binding:"omitempty,min=0"`
}

// SubmitQuizRequest представляет отправку викторины
type SubmitQuizRequest struct {
	Answers      []SubmittedAnswerRequest `json:"answers" binding:"required"`
	TimeTakenSec int                      `json:"time_taken" binding:"min=0"`
	StartTime    *time.Time               `json:"start_time"`
}

// SubmitQuiz принимает отправку викторины и возвращает полный результат
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	var req SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answers := make([]scoring.SubmittedAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, scoring.SubmittedAnswer{
			QuestionID:   a.QuestionID,
			Answer:       a.Answer,
			TimeSpentSec: a.TimeSpentSec,
		})
	}

	result, err := h.submissionService.Submit(c.Request.Context(), middleware.CurrentUserID(c), quizID, service.SubmitParams{
		Answers:      answers,
		TimeTakenSec: req.TimeTakenSec,
		StartTime:    req.StartTime,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetQuizStats возвращает статистику попыток по викторине
func (h *QuizHandler) GetQuizStats(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	stats, err := h.quizService.GetQuizStats(quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetQuizLeaderboard возвращает лучшие результаты по викторине
func (h *QuizHandler) GetQuizLeaderboard(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := h.quizService.GetQuizLeaderboard(quizID, limit)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// GetMySubmissions возвращает отправки текущего пользователя.
// Параметр format=csv|xlsx включает экспорт всей истории.
func (h *QuizHandler) GetMySubmissions(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	if format := c.Query("format"); format != "" {
		h.exportSubmissions(c, userID, format)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	quizID, _ := strconv.ParseUint(c.Query("quiz_id"), 10, 32)

	submissions, total, err := h.submissionService.GetUserSubmissions(userID, repository.SubmissionFilter{
		QuizID:    uint(quizID),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": submissions, "total": total})
}

// GetSubmission возвращает одну отправку
func (h *QuizHandler) GetSubmission(c *gin.Context) {
	submissionID := c.MustGet("submissionID").(uint)

	submission, err := h.submissionService.GetSubmission(submissionID, middleware.CurrentUserID(c), middleware.IsAdminRequest(c))
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// FeedbackRequest представляет отзыв об отправке
type FeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"omitempty,max=500"`
}

// SubmitFeedback сохраняет отзыв об отправке
func (h *QuizHandler) SubmitFeedback(c *gin.Context) {
	submissionID := c.MustGet("submissionID").(uint)

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.submissionService.SubmitFeedback(submissionID, middleware.CurrentUserID(c), req.Rating, req.Comment)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Feedback saved"})
}

// exportSubmissions экспортирует историю отправок пользователя в CSV или Excel
func (h *QuizHandler) exportSubmissions(c *gin.Context, userID uint, format string) {
	// Вся история без пагинации
	submissions, _, err := h.submissionService.GetUserSubmissions(userID, repository.SubmissionFilter{
		SortBy:    "created_at",
		SortOrder: "asc",
		Limit:     10000,
	})
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	filename := fmt.Sprintf("submissions_%d_%s", userID, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportSubmissionsXLSX(c, submissions, filename)
	default:
		h.exportSubmissionsCSV(c, submissions, filename)
	}
}

var submissionExportHeaders = []string{"Дата", "Викторина", "Баллы", "Максимум", "Процент", "Оценка", "Правильных", "Неправильных", "Пропущено", "Время (сек)"}

// exportSubmissionsCSV экспортирует отправки в CSV с правильным экранированием спецсимволов
func (h *QuizHandler) exportSubmissionsCSV(c *gin.Context, submissions []entity.Submission, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(submissionExportHeaders)
	for i := range submissions {
		s := &submissions[i]
		writer.Write([]string{
			s.CreatedAt.Format("2006-01-02 15:04"),
			strconv.Itoa(int(s.QuizID)),
			strconv.Itoa(s.Score),
			strconv.Itoa(s.TotalMarks),
			strconv.Itoa(s.Percentage),
			s.Grade(),
			strconv.Itoa(s.CorrectAnswers),
			strconv.Itoa(s.IncorrectAnswers),
			strconv.Itoa(s.SkippedAnswers),
			strconv.Itoa(s.TimeTakenSec),
		})
	}
}

// exportSubmissionsXLSX экспортирует отправки в Excel через StreamWriter
func (h *QuizHandler) exportSubmissionsXLSX(c *gin.Context, submissions []entity.Submission, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Отправки"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[QuizHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(submissionExportHeaders))
	for i, head := range submissionExportHeaders {
		headers[i] = head
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[QuizHandler] Ошибка записи заголовков: %v", err)
	}

	for i := range submissions {
		s := &submissions[i]
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			s.CreatedAt.Format("2006-01-02 15:04"),
			s.QuizID, s.Score, s.TotalMarks, s.Percentage, s.Grade(),
			s.CorrectAnswers, s.IncorrectAnswers, s.SkippedAnswers, s.TimeTakenSec,
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[QuizHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[QuizHandler] Ошибка при Flush: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[QuizHandler] Ошибка записи Excel в response: %v", err)
	}
}

func (h *QuizHandler) handleQuizError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in QuizHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
