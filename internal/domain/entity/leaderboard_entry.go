package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Типы достижений. Каждое достижение выдаётся не более одного раза.
const (
	AchievementFirstQuiz    = "first_quiz"
	AchievementPerfectScore = "perfect_score"
	AchievementSpeedDemon   = "speed_demon"
	AchievementMaster       = "master"
	AchievementStreak3      = "streak_3"
	AchievementStreak5      = "streak_5"
	AchievementStreak10     = "streak_10"
)

// achievementDescriptions - фиксированные тексты достижений
var achievementDescriptions = map[string]string{
	AchievementFirstQuiz:    "Completed your first quiz!",
	AchievementPerfectScore: "Achieved a perfect score!",
	AchievementSpeedDemon:   "Fast and accurate! Completed quiz quickly with high score.",
	AchievementMaster:       "Quiz Master! Maintained excellent performance across multiple quizzes.",
	AchievementStreak3:      "On a roll! Completed quizzes 3 days in a row.",
	AchievementStreak5:      "Dedicated! Completed quizzes 5 days in a row.",
	AchievementStreak10:     "Unstoppable! Completed quizzes 10 days in a row.",
}

// Achievement представляет выданный бейдж
type Achievement struct {
	Type        string    `json:"type"`
	EarnedAt    time.Time `json:"earned_at"`
	Description string    `json:"description"`
}

// NewAchievement создает достижение заданного типа с серверным временем выдачи
func NewAchievement(achievementType string, earnedAt time.Time) Achievement {
	return Achievement{
		Type:        achievementType,
		EarnedAt:    earnedAt,
		Description: achievementDescriptions[achievementType],
	}
}

// AchievementList - пользовательский тип для хранения достижений в JSONB
type AchievementList []Achievement

// Scan реализует интерфейс sql.Scanner для AchievementList
func (o *AchievementList) Scan(value interface{}) error {
	if value == nil {
		*o = AchievementList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = AchievementList{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для AchievementList
func (o AchievementList) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Contains проверяет, присутствует ли достижение данного типа
func (o AchievementList) Contains(achievementType string) bool {
	for i := range o {
		if o[i].Type == achievementType {
			return true
		}
	}
	return false
}

// LeaderboardEntry представляет запись глобального лидерборда.
// Запись полностью производна от истории отправок и может быть безопасно
// пересобрана с нуля; исключение - достижения, которые после выдачи
// сохраняются независимо от пересборок.
type LeaderboardEntry struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;uniqueIndex" json:"user_id"`
	Username       string          `gorm:"size:50;not null" json:"username"`
	Email          string          `gorm:"size:100;not null" json:"email"`
	TotalScore     int             `gorm:"not null;default:0;index" json:"total_score"`
	TotalQuizzes   int             `gorm:"not null;default:0" json:"total_quizzes"`
	AverageScore   int             `gorm:"not null;default:0;index" json:"average_score"`
	BestScore      int             `gorm:"not null;default:0" json:"best_score"`
	TotalTimeSpent int             `gorm:"not null;default:0" json:"total_time_spent"`
	Achievements   AchievementList `gorm:"type:jsonb;not null" json:"achievements"`
	CurrentStreak  int             `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak  int             `gorm:"not null;default:0" json:"longest_streak"`
	LastQuizDate   *time.Time      `json:"last_quiz_date,omitempty"`
	Rank           int             `gorm:"not null;default:0;index" json:"rank"`
	PreviousRank   int             `gorm:"not null;default:0" json:"previous_rank"`
	RankChange     int             `gorm:"not null;default:0" json:"rank_change"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (LeaderboardEntry) TableName() string {
	return "leaderboard_entries"
}

// HasAchievement проверяет, выдано ли уже достижение данного типа
func (e *LeaderboardEntry) HasAchievement(achievementType string) bool {
	return e.Achievements.Contains(achievementType)
}

// RankChangeIndicator возвращает направление изменения ранга: "up", "down" или "stable"
func (e *LeaderboardEntry) RankChangeIndicator() string {
	if e.RankChange > 0 {
		return "up"
	}
	if e.RankChange < 0 {
		return "down"
	}
	return "stable"
}
