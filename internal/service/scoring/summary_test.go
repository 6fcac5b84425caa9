package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name       string
		score      int
		totalMarks int
		want       int
	}{
		{"нулевой счёт", 0, 10, 0},
		{"максимальный счёт", 10, 10, 100},
		{"округление вверх от .5", 3, 8, 38},
		{"округление вниз", 1, 3, 33},
		{"округление вверх", 2, 3, 67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Percentage(tt.score, tt.totalMarks)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPercentage_InvalidTotalMarks(t *testing.T) {
	for _, totalMarks := range []int{0, -5} {
		_, err := Percentage(5, totalMarks)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	}
}

// gradedAnswer - сокращение для сборки проверенного ответа в тестах
func gradedAnswer(userAnswer string, correct bool, points int) entity.Answer {
	return entity.Answer{
		QuestionID:    "q_test",
		UserAnswer:    userAnswer,
		CorrectAnswer: "right",
		IsCorrect:     correct,
		Points:        points,
	}
}

func TestSummarize_Counters(t *testing.T) {
	answers := []entity.Answer{
		gradedAnswer("right", true, 1),
		gradedAnswer("right", true, 2),
		gradedAnswer("wrong", false, 0),
		gradedAnswer("", false, 0), // пропущен
	}

	s, err := Summarize(answers, 8, 120, 600)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Score)
	assert.Equal(t, 8, s.TotalMarks)
	assert.Equal(t, 38, s.Percentage, "3/8 округляется до 38")
	assert.Equal(t, 2, s.CorrectAnswers)
	assert.Equal(t, 1, s.IncorrectAnswers)
	assert.Equal(t, 1, s.SkippedAnswers)
	assert.Equal(t, "F", s.Grade)
	assert.Equal(t, "Poor", s.Performance)
}

func TestSummarize_GradeBoundaries(t *testing.T) {
	tests := []struct {
		score           int
		wantGrade       string
		wantPerformance string
	}{
		{100, "A+", "Excellent"},
		{90, "A+", "Excellent"},
		{89, "A", "Very Good"},
		{80, "A", "Very Good"},
		{79, "B", "Good"},
		{70, "B", "Good"},
		{69, "C", "Average"},
		{60, "C", "Average"},
		{59, "D", "Below Average"},
		{50, "D", "Below Average"},
		{49, "F", "Poor"},
		{0, "F", "Poor"},
	}

	for _, tt := range tests {
		// Одна правильная позиция стоимостью tt.score из 100 даёт ровно
		// tt.score процентов
		s, err := Summarize([]entity.Answer{gradedAnswer("right", true, tt.score)}, 100, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, tt.wantGrade, s.Grade, "оценка для %d%%", tt.score)
		assert.Equal(t, tt.wantPerformance, s.Performance, "уровень для %d%%", tt.score)
	}
}

func TestSummarize_ScoreInsight(t *testing.T) {
	tests := []struct {
		percentage int
		want       string
	}{
		{95, "Excellent performance! You've mastered this topic."},
		{75, "Good job! You have a solid understanding of the material."},
		{55, "You're on the right track. Review the topics you missed."},
		{30, "Consider reviewing the material and retaking the quiz."},
	}

	for _, tt := range tests {
		s, err := Summarize([]entity.Answer{gradedAnswer("right", true, tt.percentage)}, 100, 0, 0)
		require.NoError(t, err)
		require.NotEmpty(t, s.Insights)
		assert.Equal(t, tt.want, s.Insights[0])
	}
}

func TestSummarize_TimeInsights(t *testing.T) {
	answers := []entity.Answer{gradedAnswer("right", true, 80)}

	// Быстрое прохождение: меньше половины лимита
	s, err := Summarize(answers, 100, 200, 600)
	require.NoError(t, err)
	assert.Contains(t, s.Insights, "You completed the quiz quickly. Great time management!")

	// Почти весь лимит израсходован
	s, err = Summarize(answers, 100, 580, 600)
	require.NoError(t, err)
	assert.Contains(t, s.Insights, "You used most of the available time. Consider practicing to improve speed.")

	// Среднее использование времени не комментируется
	s, err = Summarize(answers, 100, 400, 600)
	require.NoError(t, err)
	assert.Len(t, s.Insights, 1)

	// Без лимита времени подсказка о времени не формируется
	s, err = Summarize(answers, 100, 10, 0)
	require.NoError(t, err)
	assert.Len(t, s.Insights, 1)
}

func TestSummarize_SkipPatternInsight(t *testing.T) {
	const skipMsg = "You skipped many questions. Try to attempt all questions even if unsure."

	// Низкая точность и пропусков больше, чем ошибок
	answers := []entity.Answer{
		gradedAnswer("wrong", false, 0),
		gradedAnswer("", false, 0),
		gradedAnswer("", false, 0),
	}
	s, err := Summarize(answers, 10, 0, 0)
	require.NoError(t, err)
	assert.Contains(t, s.Insights, skipMsg)

	// Все вопросы пропущены: попыток нет, подсказка не формируется
	answers = []entity.Answer{
		gradedAnswer("", false, 0),
		gradedAnswer("", false, 0),
	}
	s, err = Summarize(answers, 10, 0, 0)
	require.NoError(t, err)
	assert.NotContains(t, s.Insights, skipMsg)

	// Точность высокая: пропуски не комментируются
	answers = []entity.Answer{
		gradedAnswer("right", true, 5),
		gradedAnswer("", false, 0),
	}
	s, err = Summarize(answers, 10, 0, 0)
	require.NoError(t, err)
	assert.NotContains(t, s.Insights, skipMsg)
}

func TestSummarize_InvalidTotalMarks(t *testing.T) {
	_, err := Summarize(nil, 0, 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
