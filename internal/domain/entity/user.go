package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Роли пользователей
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserPreferences содержит пользовательские настройки
type UserPreferences struct {
	EmailNotifications bool   `gorm:"not null;default:true" json:"email_notifications"`
	Theme              string `gorm:"size:10;not null;default:'light'" json:"theme"` // "light" или "dark"
}

// UserStats содержит накопительную статистику пользователя.
// TotalScore - сумма сырых баллов, AverageScore - округлённое среднее
// сырых баллов, BestScore - максимальный процент за всю историю.
type UserStats struct {
	TotalQuizzes int `gorm:"not null;default:0" json:"total_quizzes"`
	TotalScore   int `gorm:"not null;default:0" json:"total_score"`
	AverageScore int `gorm:"not null;default:0" json:"average_score"`
	BestScore    int `gorm:"not null;default:0" json:"best_score"`
}

// User представляет пользователя в системе
type User struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Username  string          `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email     string          `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password  string          `gorm:"size:100;not null" json:"-"`
	FirstName string          `gorm:"size:50;not null;default:''" json:"first_name"`
	LastName  string          `gorm:"size:50;not null;default:''" json:"last_name"`
	Avatar    string          `gorm:"size:255;not null;default:''" json:"avatar"`
	Role      string          `gorm:"size:20;not null;default:'user'" json:"-"` // "user" или "admin"
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	LastLogin time.Time       `json:"last_login"`
	Prefs     UserPreferences `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
	Stats     UserStats       `gorm:"embedded;embeddedPrefix:stat_" json:"stats"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// FullName возвращает полное имя пользователя
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin проверяет, является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (u *User) BeforeSave(tx *gorm.DB) error {
	// Хешируем пароль только если он:
	// 1. Не пустой
	// 2. Не является уже bcrypt-хешем (начинается с "$2a$", "$2b$" или "$2y$")
	if len(u.Password) > 0 && !strings.HasPrefix(u.Password, "$2a$") &&
		!strings.HasPrefix(u.Password, "$2b$") && !strings.HasPrefix(u.Password, "$2y$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[User.BeforeSave] Ошибка при хешировании пароля для email=%s: %v", u.Email, err)
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}
