package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	"github.com/yourusername/quizhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
)

// Ограничения генерации викторин
const (
	minQuizQuestions     = 1
	maxQuizQuestions     = 50
	defaultQuizQuestions = 10
	defaultTimeLimitMin  = 30
)

// GenerateQuizParams описывает запрос на генерацию викторины
type GenerateQuizParams struct {
	Title        string
	Description  string
	Category     int
	Amount       int
	Difficulty   string
	Type         string
	TimeLimitMin int
	IsPublic     bool
	Tags         []string
	Settings     *entity.QuizSettings
}

// QuizRankedEntry - строка таблицы лучших результатов одной викторины
type QuizRankedEntry struct {
	Rank         int    `json:"rank"`
	UserID       uint   `json:"user_id"`
	Username     string `json:"username"`
	Score        int    `json:"score"`
	Percentage   int    `json:"percentage"`
	TimeTakenSec int    `json:"time_taken"`
}

// QuizService управляет жизненным циклом викторин
type QuizService struct {
	quizRepo       repository.QuizRepository
	submissionRepo repository.SubmissionRepository
	userRepo       repository.UserRepository
	trivia         TriviaSource
}

// NewQuizService создает новый сервис викторин
func NewQuizService(
	quizRepo repository.QuizRepository,
	submissionRepo repository.SubmissionRepository,
	userRepo repository.UserRepository,
	trivia TriviaSource,
) *QuizService {
	return &QuizService{
		quizRepo:       quizRepo,
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
		trivia:         trivia,
	}
}

// GetCategories возвращает категории внешнего источника вопросов
func (s *QuizService) GetCategories(ctx context.Context) ([]TriviaCategory, error) {
	return s.trivia.GetCategories(ctx)
}

// GenerateQuiz создает викторину из вопросов внешнего источника
func (s *QuizService) GenerateQuiz(ctx context.Context, creatorID uint, params GenerateQuizParams) (*entity.Quiz, error) {
	amount := params.Amount
	if amount == 0 {
		amount = defaultQuizQuestions
	}
	if amount < minQuizQuestions || amount > maxQuizQuestions {
		return nil, fmt.Errorf("%w: amount must be between %d and %d", apperrors.ErrValidation, minQuizQuestions, maxQuizQuestions)
	}

	timeLimit := params.TimeLimitMin
	if timeLimit <= 0 {
		timeLimit = defaultTimeLimitMin
	}

	questions, err := s.trivia.FetchQuestions(ctx, TriviaParams{
		Amount:     amount,
		Category:   params.Category,
		Difficulty: params.Difficulty,
		Type:       params.Type,
	})
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions available for the requested parameters", apperrors.ErrValidation)
	}

	title := params.Title
	if title == "" {
		title = questions[0].Category + " Quiz"
	}
	difficulty := params.Difficulty
	if difficulty == "" {
		difficulty = entity.QuizDifficultyMixed
	}
	quizType := params.Type
	if quizType == "" {
		quizType = entity.QuizTypeMixed
	}

	settings := entity.QuizSettings{
		ShowCorrectAnswers: true,
		RandomizeQuestions: true,
		RandomizeAnswers:   true,
		AllowRetake:        true,
	}
	if params.Settings != nil {
		settings = *params.Settings
	}

	quiz := &entity.Quiz{
		Title:        title,
		Description:  params.Description,
		Category:     questions[0].Category,
		Difficulty:   difficulty,
		Type:         quizType,
		TimeLimitMin: timeLimit,
		CreatedBy:    creatorID,
		IsActive:     true,
		IsPublic:     params.IsPublic,
		Tags:         entity.StringArray(params.Tags),
		Settings:     settings,
		Questions:    questions,
	}
	// TotalMarks и TotalQuestions выставит хук BeforeSave

	if err := s.quizRepo.Create(quiz); err != nil {
		return nil, fmt.Errorf("не удалось сохранить викторину: %w", err)
	}

	log.Printf("[QuizService] Создана викторина %d (%d вопросов, %d баллов) пользователем %d",
		quiz.ID, quiz.TotalQuestions, quiz.TotalMarks, creatorID)
	return quiz, nil
}

// GetQuizByID возвращает викторину с вопросами
func (s *QuizService) GetQuizByID(quizID uint) (*entity.Quiz, error) {
	return s.quizRepo.GetWithQuestions(quizID)
}

// GetQuizForTaking возвращает активную викторину, подготовленную для
// прохождения: вопросы и варианты ответов при необходимости перемешаны
func (s *QuizService) GetQuizForTaking(quizID uint) (*entity.Quiz, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, fmt.Errorf("%w: quiz is not active", apperrors.ErrForbidden)
	}

	if quiz.Settings.RandomizeQuestions {
		rand.Shuffle(len(quiz.Questions), func(i, j int) {
			quiz.Questions[i], quiz.Questions[j] = quiz.Questions[j], quiz.Questions[i]
		})
	}
	if quiz.Settings.RandomizeAnswers {
		for i := range quiz.Questions {
			answers := quiz.Questions[i].AllAnswers
			rand.Shuffle(len(answers), func(a, b int) {
				answers[a], answers[b] = answers[b], answers[a]
			})
		}
	}
	return quiz, nil
}

// ListPublic возвращает страницу публичных викторин
func (s *QuizService) ListPublic(filter repository.QuizFilter) ([]entity.Quiz, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.quizRepo.ListPublic(filter)
}

// ListCreated возвращает викторины, созданные пользователем
func (s *QuizService) ListCreated(creatorID uint, limit, offset int) ([]entity.Quiz, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.quizRepo.ListByCreator(creatorID, false, limit, offset)
}

// UpdateSettings обновляет настройки викторины. Разрешено создателю и админу.
func (s *QuizService) UpdateSettings(quizID, userID uint, isAdmin bool, settings entity.QuizSettings) error {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return err
	}
	if quiz.CreatedBy != userID && !isAdmin {
		return fmt.Errorf("%w: only the quiz creator can change settings", apperrors.ErrForbidden)
	}

	return s.quizRepo.UpdateSettings(quizID, map[string]interface{}{
		"setting_show_correct_answers": settings.ShowCorrectAnswers,
		"setting_randomize_questions":  settings.RandomizeQuestions,
		"setting_randomize_answers":    settings.RandomizeAnswers,
		"setting_allow_retake":         settings.AllowRetake,
	})
}

// DeleteQuiz деактивирует викторину. Разрешено создателю и админу.
// История отправок сохраняется.
func (s *QuizService) DeleteQuiz(quizID, userID uint, isAdmin bool) error {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return err
	}
	if quiz.CreatedBy != userID && !isAdmin {
		return fmt.Errorf("%w: only the quiz creator can delete the quiz", apperrors.ErrForbidden)
	}
	return s.quizRepo.Deactivate(quizID)
}

// QuizStatsResult объединяет накопительную статистику викторины с детальной
type QuizStatsResult struct {
	QuizID         uint    `json:"quiz_id"`
	Title          string  `json:"title"`
	TotalAttempts  int     `json:"total_attempts"`
	AverageScore   int     `json:"average_score"`
	HighestScore   int     `json:"highest_score"`
	LowestScore    int     `json:"lowest_score"`
	AverageTimeSec float64 `json:"average_time_sec"`
}

// GetQuizStats возвращает статистику попыток по викторине
func (s *QuizService) GetQuizStats(quizID uint) (*QuizStatsResult, error) {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return nil, err
	}
	detailed, err := s.submissionRepo.GetQuizStats(quizID)
	if err != nil {
		return nil, err
	}

	return &QuizStatsResult{
		QuizID:         quiz.ID,
		Title:          quiz.Title,
		TotalAttempts:  quiz.Stats.TotalAttempts,
		AverageScore:   quiz.Stats.AverageScore,
		HighestScore:   quiz.Stats.HighestScore,
		LowestScore:    detailed.LowestScore,
		AverageTimeSec: detailed.AverageTimeSec,
	}, nil
}

// GetQuizLeaderboard возвращает лучшие результаты по одной викторине
func (s *QuizService) GetQuizLeaderboard(quizID uint, limit int) ([]QuizRankedEntry, error) {
	if _, err := s.quizRepo.GetByID(quizID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	top, err := s.submissionRepo.GetQuizTop(quizID, limit)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uint, 0, len(top))
	for i := range top {
		userIDs = append(userIDs, top[i].UserID)
	}
	users, err := s.userRepo.GetByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	usernames := make(map[uint]string, len(users))
	for i := range users {
		usernames[users[i].ID] = users[i].Username
	}

	entries := make([]QuizRankedEntry, 0, len(top))
	for i := range top {
		entries = append(entries, QuizRankedEntry{
			Rank:         i + 1,
			UserID:       top[i].UserID,
			Username:     usernames[top[i].UserID],
			Score:        top[i].Score,
			Percentage:   top[i].Percentage,
			TimeTakenSec: top[i].TimeTakenSec,
		})
	}
	return entries, nil
}
