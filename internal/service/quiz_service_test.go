package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
)

// MockTriviaSource реализует TriviaSource
type MockTriviaSource struct {
	mock.Mock
}

func (m *MockTriviaSource) GetCategories(ctx context.Context) ([]TriviaCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]TriviaCategory), args.Error(1)
}

func (m *MockTriviaSource) FetchQuestions(ctx context.Context, params TriviaParams) ([]entity.Question, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

// newQuizServiceForTest собирает сервис с моками
func newQuizServiceForTest() (*QuizService, *MockQuizRepository, *MockSubmissionRepository, *MockUserRepository, *MockTriviaSource) {
	quizRepo := new(MockQuizRepository)
	submissionRepo := new(MockSubmissionRepository)
	userRepo := new(MockUserRepository)
	trivia := new(MockTriviaSource)
	svc := NewQuizService(quizRepo, submissionRepo, userRepo, trivia)
	return svc, quizRepo, submissionRepo, userRepo, trivia
}

// sourceQuestions - вопросы, как их возвращает внешний источник
func sourceQuestions() []entity.Question {
	return []entity.Question{
		{QuestionID: "q_1", Text: "first", Category: "History", Difficulty: "easy", Points: 1},
		{QuestionID: "q_2", Text: "second", Category: "History", Difficulty: "hard", Points: 3},
	}
}

func TestGenerateQuiz_Defaults(t *testing.T) {
	svc, quizRepo, _, _, trivia := newQuizServiceForTest()

	// Без amount запрашивается количество по умолчанию
	trivia.On("FetchQuestions", mock.Anything, TriviaParams{Amount: defaultQuizQuestions}).
		Return(sourceQuestions(), nil).Once()

	var saved *entity.Quiz
	quizRepo.On("Create", mock.AnythingOfType("*entity.Quiz")).
		Run(func(args mock.Arguments) {
			saved = args.Get(0).(*entity.Quiz)
		}).Return(nil).Once()

	quiz, err := svc.GenerateQuiz(context.Background(), 42, GenerateQuizParams{IsPublic: true})
	require.NoError(t, err)
	require.NotNil(t, saved)

	// Название и категория выводятся из первого вопроса
	assert.Equal(t, "History Quiz", quiz.Title)
	assert.Equal(t, "History", quiz.Category)
	assert.Equal(t, entity.QuizDifficultyMixed, quiz.Difficulty)
	assert.Equal(t, entity.QuizTypeMixed, quiz.Type)
	assert.Equal(t, defaultTimeLimitMin, quiz.TimeLimitMin)
	assert.Equal(t, uint(42), quiz.CreatedBy)
	assert.True(t, quiz.IsActive)
	assert.True(t, quiz.IsPublic)
	assert.Len(t, quiz.Questions, 2)

	// Настройки по умолчанию - всё разрешено
	assert.True(t, quiz.Settings.ShowCorrectAnswers)
	assert.True(t, quiz.Settings.AllowRetake)
}

func TestGenerateQuiz_AmountValidation(t *testing.T) {
	svc, _, _, _, trivia := newQuizServiceForTest()

	for _, amount := range []int{-1, 51, 1000} {
		_, err := svc.GenerateQuiz(context.Background(), 1, GenerateQuizParams{Amount: amount})
		require.Error(t, err, "amount=%d", amount)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	}

	// До внешнего источника дело не доходит
	trivia.AssertNotCalled(t, "FetchQuestions", mock.Anything, mock.Anything)
}

func TestGenerateQuiz_NoQuestionsAvailable(t *testing.T) {
	svc, quizRepo, _, _, trivia := newQuizServiceForTest()

	trivia.On("FetchQuestions", mock.Anything, mock.Anything).Return([]entity.Question{}, nil).Once()

	_, err := svc.GenerateQuiz(context.Background(), 1, GenerateQuizParams{Amount: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	quizRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestGenerateQuiz_ExplicitParams(t *testing.T) {
	svc, quizRepo, _, _, trivia := newQuizServiceForTest()

	trivia.On("FetchQuestions", mock.Anything, TriviaParams{
		Amount: 5, Category: 23, Difficulty: "hard", Type: "multiple",
	}).Return(sourceQuestions(), nil).Once()
	quizRepo.On("Create", mock.Anything).Return(nil).Once()

	settings := &entity.QuizSettings{AllowRetake: false, ShowCorrectAnswers: false}
	quiz, err := svc.GenerateQuiz(context.Background(), 1, GenerateQuizParams{
		Title:        "Hard History",
		Amount:       5,
		Category:     23,
		Difficulty:   "hard",
		Type:         "multiple",
		TimeLimitMin: 15,
		Tags:         []string{"history", "hard"},
		Settings:     settings,
	})
	require.NoError(t, err)

	assert.Equal(t, "Hard History", quiz.Title)
	assert.Equal(t, "hard", quiz.Difficulty)
	assert.Equal(t, 15, quiz.TimeLimitMin)
	assert.Equal(t, entity.StringArray{"history", "hard"}, quiz.Tags)
	assert.False(t, quiz.Settings.AllowRetake)
	assert.False(t, quiz.Settings.ShowCorrectAnswers)
}

func TestGetQuizForTaking_InactiveQuiz(t *testing.T) {
	svc, quizRepo, _, _, _ := newQuizServiceForTest()

	quizRepo.On("GetWithQuestions", uint(5)).Return(&entity.Quiz{ID: 5, IsActive: false}, nil).Once()

	_, err := svc.GetQuizForTaking(5)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGetQuizForTaking_WithoutRandomization(t *testing.T) {
	svc, quizRepo, _, _, _ := newQuizServiceForTest()

	quiz := &entity.Quiz{
		ID:       5,
		IsActive: true,
		Settings: entity.QuizSettings{RandomizeQuestions: false, RandomizeAnswers: false},
		Questions: []entity.Question{
			{QuestionID: "q_1", AllAnswers: entity.StringArray{"a", "b"}},
			{QuestionID: "q_2", AllAnswers: entity.StringArray{"c", "d"}},
		},
	}
	quizRepo.On("GetWithQuestions", uint(5)).Return(quiz, nil).Once()

	got, err := svc.GetQuizForTaking(5)
	require.NoError(t, err)

	// Порядок вопросов и ответов сохраняется
	assert.Equal(t, "q_1", got.Questions[0].QuestionID)
	assert.Equal(t, entity.StringArray{"a", "b"}, got.Questions[0].AllAnswers)
}

func TestUpdateSettings_Ownership(t *testing.T) {
	svc, quizRepo, _, _, _ := newQuizServiceForTest()

	quiz := &entity.Quiz{ID: 5, CreatedBy: 1}
	quizRepo.On("GetByID", uint(5)).Return(quiz, nil)
	quizRepo.On("UpdateSettings", uint(5), mock.Anything).Return(nil)

	// Создатель может менять настройки
	require.NoError(t, svc.UpdateSettings(5, 1, false, entity.QuizSettings{}))

	// Посторонний пользователь - нет
	err := svc.UpdateSettings(5, 2, false, entity.QuizSettings{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Админ может
	require.NoError(t, svc.UpdateSettings(5, 2, true, entity.QuizSettings{}))
}

func TestDeleteQuiz_Deactivates(t *testing.T) {
	svc, quizRepo, _, _, _ := newQuizServiceForTest()

	quiz := &entity.Quiz{ID: 5, CreatedBy: 1, IsActive: true}
	quizRepo.On("GetByID", uint(5)).Return(quiz, nil)
	quizRepo.On("Deactivate", uint(5)).Return(nil).Once()

	require.NoError(t, svc.DeleteQuiz(5, 1, false))

	err := svc.DeleteQuiz(5, 2, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	quizRepo.AssertExpectations(t)
}

func TestGetQuizLeaderboard_RanksAndUsernames(t *testing.T) {
	svc, quizRepo, submissionRepo, userRepo, _ := newQuizServiceForTest()

	quizRepo.On("GetByID", uint(5)).Return(&entity.Quiz{ID: 5}, nil).Once()
	submissionRepo.On("GetQuizTop", uint(5), 10).Return([]entity.Submission{
		{UserID: 2, Score: 9, Percentage: 90, TimeTakenSec: 300},
		{UserID: 1, Score: 9, Percentage: 90, TimeTakenSec: 420},
		{UserID: 3, Score: 5, Percentage: 50, TimeTakenSec: 200},
	}, nil).Once()
	userRepo.On("GetByIDs", []uint{2, 1, 3}).Return([]entity.User{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bob"},
		{ID: 3, Username: "carol"},
	}, nil).Once()

	entries, err := svc.GetQuizLeaderboard(5, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Порядок хранилища сохраняется, ранги присваиваются подряд
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "alice", entries[1].Username)
	assert.Equal(t, 3, entries[2].Rank)
	assert.Equal(t, 50, entries[2].Percentage)
}
