package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
)

// testQuiz строит викторину с вопросами заданной сложности
func testQuiz(difficulties ...string) *entity.Quiz {
	quiz := &entity.Quiz{ID: 1}
	for i, d := range difficulties {
		quiz.Questions = append(quiz.Questions, entity.Question{
			QuestionID:    questionID(i),
			Text:          "question",
			Difficulty:    d,
			CorrectAnswer: "Paris",
			Points:        entity.PointsForDifficulty(d),
		})
	}
	quiz.RecalculateTotalMarks()
	return quiz
}

func questionID(i int) string {
	return "q_" + string(rune('a'+i))
}

func TestGrade_OneRecordPerQuestion(t *testing.T) {
	quiz := testQuiz("easy", "medium", "hard")

	// Ответ только на первый вопрос
	graded, err := Grade(quiz, []SubmittedAnswer{
		{QuestionID: questionID(0), Answer: "Paris"},
	})
	require.NoError(t, err)

	// Ровно одна запись на каждый вопрос, в порядке вопросов викторины
	require.Len(t, graded, 3)
	for i := range graded {
		assert.Equal(t, quiz.Questions[i].QuestionID, graded[i].QuestionID)
	}

	assert.True(t, graded[0].IsCorrect)
	assert.Equal(t, 1, graded[0].Points)

	// Вопросы без ответов записаны как пропущенные
	assert.True(t, graded[1].IsSkipped())
	assert.True(t, graded[2].IsSkipped())
	assert.Equal(t, 0, graded[1].Points)
	assert.Equal(t, 0, graded[2].Points)
}

func TestGrade_ExactStringMatch(t *testing.T) {
	quiz := testQuiz("easy")

	tests := []struct {
		name    string
		answer  string
		correct bool
	}{
		{"точное совпадение", "Paris", true},
		{"другой регистр", "paris", false},
		{"лишний пробел", "Paris ", false},
		{"ведущий пробел", " Paris", false},
		{"другой ответ", "London", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graded, err := Grade(quiz, []SubmittedAnswer{
				{QuestionID: quiz.Questions[0].QuestionID, Answer: tt.answer},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.correct, graded[0].IsCorrect, "Строгое сравнение строк должно давать %v", tt.correct)
		})
	}
}

func TestGrade_UnknownQuestionIDIgnored(t *testing.T) {
	quiz := testQuiz("easy")

	graded, err := Grade(quiz, []SubmittedAnswer{
		{QuestionID: "q_unknown", Answer: "Paris"},
		{QuestionID: quiz.Questions[0].QuestionID, Answer: "Paris"},
	})
	require.NoError(t, err)

	// Ответ без вопроса не попадает в результат
	require.Len(t, graded, 1)
	assert.True(t, graded[0].IsCorrect)
}

func TestGrade_PointsAwardedOnlyForCorrect(t *testing.T) {
	quiz := testQuiz("easy", "medium", "medium", "hard")
	require.Equal(t, 8, quiz.TotalMarks)

	graded, err := Grade(quiz, []SubmittedAnswer{
		{QuestionID: quiz.Questions[0].QuestionID, Answer: "Paris"},  // +1
		{QuestionID: quiz.Questions[1].QuestionID, Answer: "Paris"},  // +2
		{QuestionID: quiz.Questions[2].QuestionID, Answer: "London"}, // 0
	})
	require.NoError(t, err)

	total := 0
	for _, a := range graded {
		total += a.Points
	}
	assert.Equal(t, 3, total)
}

func TestGrade_QuizWithoutQuestions(t *testing.T) {
	quiz := &entity.Quiz{ID: 2}

	_, err := Grade(quiz, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
