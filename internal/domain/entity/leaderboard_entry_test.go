package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewAchievement(t *testing.T) {
	earnedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	a := NewAchievement(AchievementPerfectScore, earnedAt)
	assert.Equal(t, AchievementPerfectScore, a.Type)
	assert.Equal(t, earnedAt, a.EarnedAt)
	assert.Equal(t, "Achieved a perfect score!", a.Description)

	// У каждого известного типа есть описание
	for _, achType := range []string{
		AchievementFirstQuiz, AchievementPerfectScore, AchievementSpeedDemon,
		AchievementMaster, AchievementStreak3, AchievementStreak5, AchievementStreak10,
	} {
		assert.NotEmpty(t, NewAchievement(achType, earnedAt).Description, "описание для %s", achType)
	}
}

func TestAchievementListContains(t *testing.T) {
	now := time.Now()
	list := AchievementList{
		NewAchievement(AchievementFirstQuiz, now),
		NewAchievement(AchievementStreak3, now),
	}

	assert.True(t, list.Contains(AchievementFirstQuiz))
	assert.True(t, list.Contains(AchievementStreak3))
	assert.False(t, list.Contains(AchievementPerfectScore))
	assert.False(t, AchievementList{}.Contains(AchievementFirstQuiz))
}

func TestAchievementListValue(t *testing.T) {
	// Пустой список сериализуется как пустой JSON-массив, не NULL
	v, err := AchievementList{}.Value()
	assert.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestLeaderboardEntryRankChangeIndicator(t *testing.T) {
	tests := []struct {
		rankChange int
		want       string
	}{
		{3, "up"},
		{-2, "down"},
		{0, "stable"},
	}

	for _, tt := range tests {
		e := LeaderboardEntry{RankChange: tt.rankChange}
		assert.Equal(t, tt.want, e.RankChangeIndicator())
	}
}
