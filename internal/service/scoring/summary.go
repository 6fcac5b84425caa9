package scoring

import (
	"fmt"
	"math"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
)

// Summary - агрегированный итог отправки. Именно эта структура (вместе со
// списком проверенных ответов) сериализуется в ответ API на отправку викторины.
type Summary struct {
	Score            int      `json:"score"`
	TotalMarks       int      `json:"total_marks"`
	Percentage       int      `json:"percentage"`
	CorrectAnswers   int      `json:"correct_answers"`
	IncorrectAnswers int      `json:"incorrect_answers"`
	SkippedAnswers   int      `json:"skipped_answers"`
	Grade            string   `json:"grade"`
	Performance      string   `json:"performance"`
	Insights         []string `json:"insights"`
}

// Percentage вычисляет процент набранных баллов с округлением до ближайшего
// целого. Нулевая или отрицательная максимальная сумма баллов - ошибка
// валидации: процент от неё не определён.
func Percentage(score, totalMarks int) (int, error) {
	if totalMarks <= 0 {
		return 0, fmt.Errorf("%w: total marks must be positive, got %d", apperrors.ErrValidation, totalMarks)
	}
	return int(math.Round(float64(score) / float64(totalMarks) * 100)), nil
}

// Summarize строит итог по списку проверенных ответов.
//
// Счёт - сумма начисленных баллов. Ответ считается пропущенным, если
// пользователь ничего не прислал; неправильным - если прислал, но не угадал.
// Оценка и категория выступления выводятся из процента, подсказки - из
// процента, использованного времени и соотношения пропусков к ошибкам.
func Summarize(answers []entity.Answer, totalMarks, timeTakenSec, timeLimitSec int) (*Summary, error) {
	score := 0
	correct, incorrect, skipped := 0, 0, 0
	for i := range answers {
		a := &answers[i]
		score += a.Points
		switch {
		case a.IsSkipped():
			skipped++
		case a.IsCorrect:
			correct++
		default:
			incorrect++
		}
	}

	percentage, err := Percentage(score, totalMarks)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Score:            score,
		TotalMarks:       totalMarks,
		Percentage:       percentage,
		CorrectAnswers:   correct,
		IncorrectAnswers: incorrect,
		SkippedAnswers:   skipped,
		Grade:            entity.GradeForPercentage(percentage),
		Performance:      entity.PerformanceForPercentage(percentage),
	}
	summary.Insights = insights(summary, timeTakenSec, timeLimitSec)
	return summary, nil
}

// insights формирует текстовые подсказки для пользователя: по уровню
// результата всегда, по времени и по паттерну пропусков - при выполнении
// соответствующих условий.
func insights(s *Summary, timeTakenSec, timeLimitSec int) []string {
	msgs := make([]string, 0, 3)

	switch {
	case s.Percentage >= 90:
		msgs = append(msgs, "Excellent performance! You've mastered this topic.")
	case s.Percentage >= 70:
		msgs = append(msgs, "Good job! You have a solid understanding of the material.")
	case s.Percentage >= 50:
		msgs = append(msgs, "You're on the right track. Review the topics you missed.")
	default:
		msgs = append(msgs, "Consider reviewing the material and retaking the quiz.")
	}

	if timeLimitSec > 0 {
		efficiency := math.Round(float64(timeTakenSec) / float64(timeLimitSec) * 100)
		if efficiency < 50 {
			msgs = append(msgs, "You completed the quiz quickly. Great time management!")
		} else if efficiency > 90 {
			msgs = append(msgs, "You used most of the available time. Consider practicing to improve speed.")
		}
	}

	attempted := s.CorrectAnswers + s.IncorrectAnswers
	if attempted > 0 {
		accuracy := float64(s.CorrectAnswers) / float64(attempted)
		if accuracy < 0.5 && s.SkippedAnswers > s.IncorrectAnswers {
			msgs = append(msgs, "You skipped many questions. Try to attempt all questions even if unsure.")
		}
	}

	return msgs
}
