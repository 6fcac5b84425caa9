package scoring

import (
	"fmt"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
)

// SubmittedAnswer - ответ пользователя на один вопрос, как его прислал клиент
type SubmittedAnswer struct {
	QuestionID   string `json:"question_id"`
	Answer       string `json:"answer"`
	TimeSpentSec int    `json:"time_spent"`
}

// Grade проверяет присланные ответы по вопросам викторины.
//
// Список вопросов викторины авторитетен: результат содержит ровно одну запись
// на каждый вопрос. Присланный ответ без соответствующего вопроса
// игнорируется, вопрос без ответа записывается как пропущенный (пустой ответ).
// Правильность - строгое посимвольное сравнение строк, с учётом регистра
// и пробелов. Баллы начисляются в размере стоимости вопроса за правильный
// ответ и 0 за любой другой.
//
// Функция чистая: не обращается к хранилищу и не имеет побочных эффектов.
func Grade(quiz *entity.Quiz, submitted []SubmittedAnswer) ([]entity.Answer, error) {
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: quiz #%d has no questions", apperrors.ErrValidation, quiz.ID)
	}

	byQuestionID := make(map[string]SubmittedAnswer, len(submitted))
	for _, ans := range submitted {
		byQuestionID[ans.QuestionID] = ans
	}

	graded := make([]entity.Answer, 0, len(quiz.Questions))
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		ua := byQuestionID[q.QuestionID] // отсутствующий ответ = нулевое значение = пропуск

		isCorrect := ua.Answer != "" && q.IsCorrect(ua.Answer)
		points := 0
		if isCorrect {
			points = q.Points
		}

		graded = append(graded, entity.Answer{
			QuestionID:    q.QuestionID,
			UserAnswer:    ua.Answer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     isCorrect,
			Points:        points,
			TimeSpentSec:  ua.TimeSpentSec,
		})
	}

	return graded, nil
}
