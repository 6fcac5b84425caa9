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
	"github.com/yourusername/quizhub-api/internal/middleware"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
	"github.com/yourusername/quizhub-api/internal/service"
)

// LeaderboardHandler обрабатывает запросы лидерборда и достижений
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardHandler создает новый обработчик лидерборда
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// List возвращает страницу лидерборда
// GET /api/leaderboard?page=&limit=&timeframe=all|week|month
func (h *LeaderboardHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	timeframe := c.DefaultQuery("timeframe", "all")

	entries, total, err := h.leaderboardService.GetLeaderboard(page, limit, timeframe)
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": entries,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}

// Me возвращает запись и позицию текущего пользователя
func (h *LeaderboardHandler) Me(c *gin.Context) {
	rank, err := h.leaderboardService.GetUserRank(middleware.CurrentUserID(c))
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}
	c.JSON(http.StatusOK, rank)
}

// Achievements возвращает достижения текущего пользователя
func (h *LeaderboardHandler) Achievements(c *gin.Context) {
	achievements, err := h.leaderboardService.GetUserAchievements(middleware.CurrentUserID(c))
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": achievements})
}

// Stats возвращает сводку по лидерборду
func (h *LeaderboardHandler) Stats(c *gin.Context) {
	stats, err := h.leaderboardService.GetStats()
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Rebuild запускает полную пересборку лидерборда (только админ)
func (h *LeaderboardHandler) Rebuild(c *gin.Context) {
	count, err := h.leaderboardService.Rebuild(c.Request.Context())
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	log.Printf("[LeaderboardHandler] Пересборка лидерборда запущена администратором %d", middleware.CurrentUserID(c))
	c.JSON(http.StatusOK, gin.H{
		"message": "Leaderboard rebuilt",
		"entries": count,
	})
}

// Export экспортирует весь лидерборд в CSV или Excel (только админ)
// GET /api/leaderboard/export?format=csv|xlsx
func (h *LeaderboardHandler) Export(c *gin.Context) {
	entries, err := h.leaderboardService.ListAll()
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	filename := fmt.Sprintf("leaderboard_%s", time.Now().Format("2006-01-02"))

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		h.exportXLSX(c, entries, filename)
	default:
		h.exportCSV(c, entries, filename)
	}
}

var leaderboardExportHeaders = []string{"Место", "Пользователь", "Сумма баллов", "Викторин", "Средний %", "Лучший %", "Серия", "Достижений"}

// exportCSV экспортирует лидерборд в CSV с правильным экранированием спецсимволов
func (h *LeaderboardHandler) exportCSV(c *gin.Context, entries []entity.LeaderboardEntry, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(leaderboardExportHeaders)
	for i := range entries {
		e := &entries[i]
		writer.Write([]string{
			strconv.Itoa(e.Rank),
			sanitizeForExcel(e.Username),
			strconv.Itoa(e.TotalScore),
			strconv.Itoa(e.TotalQuizzes),
			strconv.Itoa(e.AverageScore),
			strconv.Itoa(e.BestScore),
			strconv.Itoa(e.CurrentStreak),
			strconv.Itoa(len(e.Achievements)),
		})
	}
}

// exportXLSX экспортирует лидерборд в Excel через StreamWriter
func (h *LeaderboardHandler) exportXLSX(c *gin.Context, entries []entity.LeaderboardEntry, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Лидерборд"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[LeaderboardHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(leaderboardExportHeaders))
	for i, head := range leaderboardExportHeaders {
		headers[i] = head
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка записи заголовков: %v", err)
	}

	for i := range entries {
		e := &entries[i]
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			e.Rank, sanitizeForExcel(e.Username), e.TotalScore, e.TotalQuizzes,
			e.AverageScore, e.BestScore, e.CurrentStreak, len(e.Achievements),
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[LeaderboardHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка при Flush: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

func (h *LeaderboardHandler) handleLeaderboardError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in LeaderboardHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
