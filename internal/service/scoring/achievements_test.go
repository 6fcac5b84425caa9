package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
)

var evalNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// achievementTypes извлекает типы из списка достижений
func achievementTypes(achievements []entity.Achievement) []string {
	var types []string
	for _, a := range achievements {
		types = append(types, a.Type)
	}
	return types
}

func TestEvaluate_FirstQuiz(t *testing.T) {
	entry := &entity.LeaderboardEntry{UserID: 1, TotalQuizzes: 1, AverageScore: 50, CurrentStreak: 1}
	submission := &entity.Submission{Percentage: 50, TimeTakenSec: 500, TimeLimitSec: 600}

	earned := Evaluate(entry, submission, evalNow)
	assert.Equal(t, []string{entity.AchievementFirstQuiz}, achievementTypes(earned))

	// У ветерана первая викторина давно позади
	entry.TotalQuizzes = 7
	earned = Evaluate(entry, submission, evalNow)
	assert.NotContains(t, achievementTypes(earned), entity.AchievementFirstQuiz)
}

func TestEvaluate_PerfectScore(t *testing.T) {
	entry := &entity.LeaderboardEntry{UserID: 1, TotalQuizzes: 2, AverageScore: 80, CurrentStreak: 1}

	earned := Evaluate(entry, &entity.Submission{Percentage: 100, TimeTakenSec: 550, TimeLimitSec: 600}, evalNow)
	assert.Contains(t, achievementTypes(earned), entity.AchievementPerfectScore)

	earned = Evaluate(entry, &entity.Submission{Percentage: 99, TimeTakenSec: 550, TimeLimitSec: 600}, evalNow)
	assert.NotContains(t, achievementTypes(earned), entity.AchievementPerfectScore)
}

func TestEvaluate_SpeedDemon(t *testing.T) {
	entry := &entity.LeaderboardEntry{UserID: 1, TotalQuizzes: 2, AverageScore: 80, CurrentStreak: 1}

	tests := []struct {
		name       string
		timeTaken  int
		timeLimit  int
		percentage int
		want       bool
	}{
		{"быстро и точно", 240, 600, 85, true},
		{"ровно половина лимита не засчитывается", 300, 600, 85, false},
		{"быстро, но результат ниже порога", 240, 600, 79, false},
		{"порог результата включительно", 299, 600, 80, true},
		{"без лимита времени не выдаётся", 10, 0, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submission := &entity.Submission{
				Percentage:   tt.percentage,
				TimeTakenSec: tt.timeTaken,
				TimeLimitSec: tt.timeLimit,
			}
			earned := Evaluate(entry, submission, evalNow)
			got := entity.AchievementList(earned).Contains(entity.AchievementSpeedDemon)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Master(t *testing.T) {
	submission := &entity.Submission{Percentage: 95, TimeTakenSec: 550, TimeLimitSec: 600}

	tests := []struct {
		name    string
		average int
		quizzes int
		want    bool
	}{
		{"высокий средний и достаточно викторин", 90, 5, true},
		{"средний ниже порога", 89, 5, false},
		{"викторин меньше порога", 95, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &entity.LeaderboardEntry{UserID: 1, TotalQuizzes: tt.quizzes, AverageScore: tt.average, CurrentStreak: 1}
			earned := Evaluate(entry, submission, evalNow)
			got := entity.AchievementList(earned).Contains(entity.AchievementMaster)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Streaks(t *testing.T) {
	submission := &entity.Submission{Percentage: 60, TimeTakenSec: 550, TimeLimitSec: 600}

	tests := []struct {
		streak int
		want   []string
	}{
		{1, nil},
		{2, nil},
		{3, []string{entity.AchievementStreak3}},
		{5, []string{entity.AchievementStreak3, entity.AchievementStreak5}},
		{10, []string{entity.AchievementStreak3, entity.AchievementStreak5, entity.AchievementStreak10}},
	}

	for _, tt := range tests {
		entry := &entity.LeaderboardEntry{UserID: 1, TotalQuizzes: 2, AverageScore: 60, CurrentStreak: tt.streak}
		earned := Evaluate(entry, submission, evalNow)

		var wantTypes []string
		wantTypes = append(wantTypes, tt.want...)
		assert.Equal(t, wantTypes, achievementTypes(earned), "серия длиной %d", tt.streak)
	}
}

func TestEvaluate_AlreadyEarnedNotRepeated(t *testing.T) {
	entry := &entity.LeaderboardEntry{
		UserID:        1,
		TotalQuizzes:  3,
		AverageScore:  95,
		CurrentStreak: 3,
		Achievements: entity.AchievementList{
			entity.NewAchievement(entity.AchievementPerfectScore, evalNow.AddDate(0, 0, -1)),
			entity.NewAchievement(entity.AchievementStreak3, evalNow.AddDate(0, 0, -1)),
		},
	}
	submission := &entity.Submission{Percentage: 100, TimeTakenSec: 100, TimeLimitSec: 600}

	earned := Evaluate(entry, submission, evalNow)
	types := achievementTypes(earned)

	assert.NotContains(t, types, entity.AchievementPerfectScore)
	assert.NotContains(t, types, entity.AchievementStreak3)
	// Новые достижения выдаются как обычно
	assert.Contains(t, types, entity.AchievementSpeedDemon)
}

func TestEvaluate_AchievementFields(t *testing.T) {
	entry := &entity.LeaderboardEntry{UserID: 1, TotalQuizzes: 1}
	submission := &entity.Submission{Percentage: 40, TimeTakenSec: 550, TimeLimitSec: 600}

	earned := Evaluate(entry, submission, evalNow)
	require.Len(t, earned, 1)
	assert.Equal(t, entity.AchievementFirstQuiz, earned[0].Type)
	assert.Equal(t, evalNow, earned[0].EarnedAt)
	assert.Equal(t, "Completed your first quiz!", earned[0].Description)
}

func TestNextStreak(t *testing.T) {
	day := func(d int) *time.Time {
		t := time.Date(2025, 6, d, 23, 59, 0, 0, time.UTC)
		return &t
	}
	submittedAt := time.Date(2025, 6, 10, 0, 1, 0, 0, time.UTC)

	tests := []struct {
		name         string
		current      int
		lastQuizDate *time.Time
		want         int
	}{
		{"первая отправка", 0, nil, 1},
		{"нет даты последней викторины", 4, nil, 1},
		{"тот же календарный день", 4, day(10), 4},
		{"следующий день продлевает серию", 4, day(9), 5},
		{"пропуск дня сбрасывает серию", 4, day(8), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStreak(tt.current, tt.lastQuizDate, submittedAt))
		})
	}
}

func TestNextStreak_CalendarDaysNotDuration(t *testing.T) {
	// Между отправками меньше двух часов, но календарные дни разные
	last := time.Date(2025, 6, 9, 23, 30, 0, 0, time.UTC)
	next := time.Date(2025, 6, 10, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, 3, NextStreak(2, &last, next))
}

func TestStreakFromDates(t *testing.T) {
	day := func(d, hour int) time.Time {
		return time.Date(2025, 6, d, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name        string
		dates       []time.Time
		wantCurrent int
		wantLongest int
	}{
		{"нет отправок", nil, 0, 0},
		{"одна отправка", []time.Time{day(1, 10)}, 1, 1},
		{"непрерывная серия", []time.Time{day(1, 10), day(2, 10), day(3, 10)}, 3, 3},
		{"повторы в один день не продлевают", []time.Time{day(1, 9), day(1, 20), day(2, 10)}, 2, 2},
		{"разрыв сбрасывает текущую, максимум сохраняется",
			[]time.Time{day(1, 10), day(2, 10), day(3, 10), day(7, 10), day(8, 10)}, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, longest := StreakFromDates(tt.dates)
			assert.Equal(t, tt.wantCurrent, current)
			assert.Equal(t, tt.wantLongest, longest)
		})
	}
}
