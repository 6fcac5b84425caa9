package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointsForDifficulty(t *testing.T) {
	tests := []struct {
		difficulty string
		want       int
	}{
		{DifficultyEasy, 1},
		{DifficultyMedium, 2},
		{DifficultyHard, 3},
		{"", 1},
		{"impossible", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PointsForDifficulty(tt.difficulty), "стоимость для сложности %q", tt.difficulty)
	}
}

func TestQuestionIsCorrect(t *testing.T) {
	q := Question{CorrectAnswer: "The Netherlands"}

	assert.True(t, q.IsCorrect("The Netherlands"))

	// Сравнение строгое: регистр и пробелы значимы
	assert.False(t, q.IsCorrect("the netherlands"))
	assert.False(t, q.IsCorrect("The Netherlands "))
	assert.False(t, q.IsCorrect(""))
}

func TestQuizRecalculateTotalMarks(t *testing.T) {
	quiz := Quiz{
		Questions: []Question{
			{Points: 1},
			{Points: 2},
			{Points: 2},
			{Points: 3},
		},
	}
	quiz.RecalculateTotalMarks()
	assert.Equal(t, 8, quiz.TotalMarks)
}

func TestQuizTimeLimits(t *testing.T) {
	quiz := Quiz{TimeLimitMin: 30, TotalQuestions: 10}
	assert.Equal(t, 1800, quiz.TimeLimitSeconds())
	assert.Equal(t, 180, quiz.AvgTimePerQuestionSec())

	empty := Quiz{TimeLimitMin: 30}
	assert.Equal(t, 0, empty.AvgTimePerQuestionSec())
}
