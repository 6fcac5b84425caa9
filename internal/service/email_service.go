package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
)

// EmailService sends transactional emails.
type EmailService interface {
	SendQuizResults(ctx context.Context, user *entity.User, quiz *entity.Quiz, submission *entity.Submission) error
}

// NoopEmailService is used when email delivery is disabled.
type NoopEmailService struct{}

func (s *NoopEmailService) SendQuizResults(ctx context.Context, user *entity.User, quiz *entity.Quiz, submission *entity.Submission) error {
	log.Printf("[EmailService] noop send quiz results to=%s quiz=%d", user.Email, quiz.ID)
	return nil
}

// ResendEmailService sends emails via Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendQuizResults(ctx context.Context, user *entity.User, quiz *entity.Quiz, submission *entity.Submission) error {
	if user == nil || user.Email == "" {
		return fmt.Errorf("recipient email is required")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{user.Email},
		Subject: fmt.Sprintf("Quiz Results: %s", quiz.Title),
		Text:    quizResultsText(user, quiz, submission),
		Html:    quizResultsHTML(user, quiz, submission),
	}

	// Одна отправка = один ключ идемпотентности, повторы безопасны
	options := &resend.SendEmailOptions{
		IdempotencyKey: fmt.Sprintf("quiz-results-%d", submission.ID),
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func quizResultsText(user *entity.User, quiz *entity.Quiz, submission *entity.Submission) string {
	return fmt.Sprintf(
		"Hi %s,\n\nHere are your results for \"%s\":\n\nScore: %d/%d (%d%%)\nGrade: %s\nPerformance: %s\nCorrect: %d, Incorrect: %d, Skipped: %d\nTime taken: %d seconds\n\nKeep practicing!",
		user.Username, quiz.Title,
		submission.Score, submission.TotalMarks, submission.Percentage,
		submission.Grade(), submission.Performance(),
		submission.CorrectAnswers, submission.IncorrectAnswers, submission.SkippedAnswers,
		submission.TimeTakenSec,
	)
}

func quizResultsHTML(user *entity.User, quiz *entity.Quiz, submission *entity.Submission) string {
	return fmt.Sprintf(
		`<h2>Quiz Results</h2>
<p>Hi %s, here are your results for <strong>%s</strong>:</p>
<ul>
<li>Score: <strong>%d/%d (%d%%)</strong></li>
<li>Grade: <strong>%s</strong></li>
<li>Performance: %s</li>
<li>Correct: %d, Incorrect: %d, Skipped: %d</li>
<li>Time taken: %d seconds</li>
</ul>
<p>Keep practicing!</p>`,
		user.Username, quiz.Title,
		submission.Score, submission.TotalMarks, submission.Percentage,
		submission.Grade(), submission.Performance(),
		submission.CorrectAnswers, submission.IncorrectAnswers, submission.SkippedAnswers,
		submission.TimeTakenSec,
	)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary()) {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
