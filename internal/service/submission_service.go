package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	"github.com/yourusername/quizhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
	"github.com/yourusername/quizhub-api/internal/service/scoring"
)

// SubmitParams описывает отправку викторины клиентом
type SubmitParams struct {
	Answers      []scoring.SubmittedAnswer
	TimeTakenSec int
	StartTime    *time.Time
	IPAddress    string
	UserAgent    string
}

// SubmitResult - полный результат отправки в форме ответа API
type SubmitResult struct {
	SubmissionID     uint                 `json:"submission_id"`
	Score            int                  `json:"score"`
	TotalMarks       int                  `json:"total_marks"`
	Percentage       int                  `json:"percentage"`
	CorrectAnswers   int                  `json:"correct_answers"`
	IncorrectAnswers int                  `json:"incorrect_answers"`
	SkippedAnswers   int                  `json:"skipped_answers"`
	TimeTakenSec     int                  `json:"time_taken"`
	Grade            string               `json:"grade"`
	Performance      string               `json:"performance"`
	Insights         []string             `json:"insights"`
	Answers          []entity.Answer      `json:"answers"`
	NewAchievements  []entity.Achievement `json:"new_achievements"`
}

// SubmissionService принимает отправки викторин и проводит их через полный
// конвейер: проверка ответов, агрегация итога, сохранение, обновление
// статистики пользователя и викторины, лидерборд и достижения, письмо
// с результатами.
type SubmissionService struct {
	db             *gorm.DB
	submissionRepo repository.SubmissionRepository
	quizRepo       repository.QuizRepository
	userRepo       repository.UserRepository
	leaderboard    *LeaderboardService
	email          EmailService
}

// NewSubmissionService создает новый сервис отправок
func NewSubmissionService(
	db *gorm.DB,
	submissionRepo repository.SubmissionRepository,
	quizRepo repository.QuizRepository,
	userRepo repository.UserRepository,
	leaderboard *LeaderboardService,
	email EmailService,
) *SubmissionService {
	return &SubmissionService{
		db:             db,
		submissionRepo: submissionRepo,
		quizRepo:       quizRepo,
		userRepo:       userRepo,
		leaderboard:    leaderboard,
		email:          email,
	}
}

// Submit обрабатывает отправку викторины.
//
// Отправка, статистика пользователя и статистика викторины фиксируются в
// одной транзакции: либо всё, либо ничего. Лидерборд и достижения
// обновляются после фиксации - их сбой не отменяет принятую отправку.
func (s *SubmissionService) Submit(ctx context.Context, userID, quizID uint, params SubmitParams) (*SubmitResult, error) {
	if params.TimeTakenSec < 0 {
		return nil, fmt.Errorf("%w: time taken cannot be negative", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, fmt.Errorf("%w: quiz is not active", apperrors.ErrForbidden)
	}
	if !quiz.Settings.AllowRetake {
		taken, err := s.submissionRepo.HasSubmission(userID, quizID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: quiz does not allow retakes", apperrors.ErrConflict)
		}
	}

	graded, err := scoring.Grade(quiz, params.Answers)
	if err != nil {
		return nil, err
	}
	summary, err := scoring.Summarize(graded, quiz.TotalMarks, params.TimeTakenSec, quiz.TimeLimitSeconds())
	if err != nil {
		return nil, err
	}

	endTime := time.Now()
	startTime := endTime.Add(-time.Duration(params.TimeTakenSec) * time.Second)
	if params.StartTime != nil {
		startTime = *params.StartTime
	}

	submission := &entity.Submission{
		UserID:           userID,
		QuizID:           quizID,
		Answers:          graded,
		Score:            summary.Score,
		TotalMarks:       summary.TotalMarks,
		Percentage:       summary.Percentage,
		CorrectAnswers:   summary.CorrectAnswers,
		IncorrectAnswers: summary.IncorrectAnswers,
		SkippedAnswers:   summary.SkippedAnswers,
		TimeTakenSec:     params.TimeTakenSec,
		TimeLimitSec:     quiz.TimeLimitSeconds(),
		StartTime:        startTime,
		EndTime:          endTime,
		Status:           entity.SubmissionStatusCompleted,
		IPAddress:        params.IPAddress,
		UserAgent:        params.UserAgent,
	}

	if err := s.persistSubmission(submission); err != nil {
		return nil, err
	}

	// Лидерборд и достижения обновляются после фиксации отправки:
	// их сбой логируется, но не отменяет принятый результат
	newAchievements, err := s.leaderboard.RecordSubmission(user, submission)
	if err != nil {
		log.Printf("[SubmissionService] Не удалось обновить лидерборд для отправки %d: %v", submission.ID, err)
		newAchievements = nil
	}

	if user.Prefs.EmailNotifications {
		go s.sendResultsEmail(user, quiz, submission)
	}

	result := &SubmitResult{
		SubmissionID:     submission.ID,
		Score:            summary.Score,
		TotalMarks:       summary.TotalMarks,
		Percentage:       summary.Percentage,
		CorrectAnswers:   summary.CorrectAnswers,
		IncorrectAnswers: summary.IncorrectAnswers,
		SkippedAnswers:   summary.SkippedAnswers,
		TimeTakenSec:     params.TimeTakenSec,
		Grade:            summary.Grade,
		Performance:      summary.Performance,
		Insights:         summary.Insights,
		NewAchievements:  newAchievements,
	}
	if quiz.Settings.ShowCorrectAnswers {
		result.Answers = graded
	} else {
		result.Answers = stripCorrectAnswers(graded)
	}
	if result.NewAchievements == nil {
		result.NewAchievements = []entity.Achievement{}
	}
	return result, nil
}

// persistSubmission сохраняет отправку и обновляет статистику пользователя
// и викторины в одной транзакции
func (s *SubmissionService) persistSubmission(submission *entity.Submission) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			log.Printf("[SubmissionService] Паника при сохранении отправки: %v", rec)
		}
	}()

	if err := s.submissionRepo.Create(tx, submission); err != nil {
		tx.Rollback()
		return fmt.Errorf("не удалось сохранить отправку: %w", err)
	}
	if err := s.userRepo.ApplySubmissionStats(tx, submission.UserID, submission.Score, submission.Percentage); err != nil {
		tx.Rollback()
		return fmt.Errorf("не удалось обновить статистику пользователя: %w", err)
	}
	if err := s.quizRepo.ApplySubmissionStats(tx, submission.QuizID, submission.Percentage); err != nil {
		tx.Rollback()
		return fmt.Errorf("не удалось обновить статистику викторины: %w", err)
	}

	return tx.Commit().Error
}

// sendResultsEmail отправляет письмо с результатами в фоне
func (s *SubmissionService) sendResultsEmail(user *entity.User, quiz *entity.Quiz, submission *entity.Submission) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.email.SendQuizResults(ctx, user, quiz, submission); err != nil {
		log.Printf("[SubmissionService] Не удалось отправить письмо с результатами отправки %d: %v", submission.ID, err)
		return
	}
	if err := s.submissionRepo.MarkEmailSent(submission.ID, time.Now()); err != nil {
		log.Printf("[SubmissionService] Не удалось отметить отправку письма для %d: %v", submission.ID, err)
	}
}

// stripCorrectAnswers убирает правильные ответы из результата, когда
// настройки викторины запрещают их показывать
func stripCorrectAnswers(answers []entity.Answer) []entity.Answer {
	stripped := make([]entity.Answer, len(answers))
	copy(stripped, answers)
	for i := range stripped {
		stripped[i].CorrectAnswer = ""
	}
	return stripped
}

// GetSubmission возвращает отправку, доступ только владельцу и админу
func (s *SubmissionService) GetSubmission(submissionID, userID uint, isAdmin bool) (*entity.Submission, error) {
	submission, err := s.submissionRepo.GetByID(submissionID)
	if err != nil {
		return nil, err
	}
	if submission.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("%w: submission belongs to another user", apperrors.ErrForbidden)
	}
	return submission, nil
}

// GetUserSubmissions возвращает страницу отправок пользователя
func (s *SubmissionService) GetUserSubmissions(userID uint, filter repository.SubmissionFilter) ([]entity.Submission, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.submissionRepo.GetUserSubmissions(userID, filter)
}

// SubmitFeedback сохраняет отзыв владельца об отправке
func (s *SubmissionService) SubmitFeedback(submissionID, userID uint, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", apperrors.ErrValidation)
	}

	submission, err := s.submissionRepo.GetByID(submissionID)
	if err != nil {
		return err
	}
	if submission.UserID != userID {
		return fmt.Errorf("%w: submission belongs to another user", apperrors.ErrForbidden)
	}

	return s.submissionRepo.UpdateFeedback(submissionID, rating, comment)
}
