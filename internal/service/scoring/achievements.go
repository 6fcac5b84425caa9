package scoring

import (
	"time"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
)

// Пороговые значения для достижений
const (
	speedDemonTimeRatio  = 0.5 // доля лимита времени, ниже которой засчитывается скорость
	speedDemonMinPercent = 80
	masterMinAverage     = 90
	masterMinQuizzes     = 5
)

// Evaluate возвращает достижения, заработанные данной отправкой и ещё не
// присутствующие в записи лидерборда. Запись должна уже отражать эту отправку
// (счётчики обновлены). Повторный вызов с теми же аргументами ничего не
// вернёт: уже выданные типы отфильтровываются.
//
// Функция чистая, запись не изменяет.
func Evaluate(entry *entity.LeaderboardEntry, submission *entity.Submission, now time.Time) []entity.Achievement {
	var earned []entity.Achievement
	grant := func(achType string, ok bool) {
		if ok && !entry.HasAchievement(achType) {
			earned = append(earned, entity.NewAchievement(achType, now))
		}
	}

	grant(entity.AchievementFirstQuiz, entry.TotalQuizzes == 1)
	grant(entity.AchievementPerfectScore, submission.Percentage == 100)

	if submission.TimeLimitSec > 0 {
		ratio := float64(submission.TimeTakenSec) / float64(submission.TimeLimitSec)
		grant(entity.AchievementSpeedDemon, ratio < speedDemonTimeRatio && submission.Percentage >= speedDemonMinPercent)
	}

	grant(entity.AchievementMaster, entry.AverageScore >= masterMinAverage && entry.TotalQuizzes >= masterMinQuizzes)

	grant(entity.AchievementStreak3, entry.CurrentStreak >= 3)
	grant(entity.AchievementStreak5, entry.CurrentStreak >= 5)
	grant(entity.AchievementStreak10, entry.CurrentStreak >= 10)

	return earned
}

// NextStreak вычисляет длину серии после отправки, сделанной в момент
// submittedAt. Серия считается по календарным дням (UTC): отправка на
// следующий день после последней продлевает серию, отправка в тот же день
// сохраняет её, пропуск хотя бы одного дня сбрасывает до 1.
func NextStreak(current int, lastQuizDate *time.Time, submittedAt time.Time) int {
	if current <= 0 || lastQuizDate == nil {
		return 1
	}
	switch daysBetween(*lastQuizDate, submittedAt) {
	case 0:
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}

// StreakFromDates пересчитывает текущую и максимальную серии по полной
// истории отправок. Даты должны быть отсортированы по возрастанию. Текущая
// серия - длина непрерывной цепочки дней, заканчивающейся последней отправкой.
func StreakFromDates(dates []time.Time) (current, longest int) {
	if len(dates) == 0 {
		return 0, 0
	}

	current, longest = 1, 1
	for i := 1; i < len(dates); i++ {
		switch daysBetween(dates[i-1], dates[i]) {
		case 0:
			// та же дата, серия не меняется
		case 1:
			current++
		default:
			current = 1
		}
		if current > longest {
			longest = current
		}
	}
	return current, longest
}

// daysBetween возвращает число календарных дней (UTC) между a и b.
func daysBetween(a, b time.Time) int {
	da := truncateToDay(a)
	db := truncateToDay(b)
	return int(db.Sub(da).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
