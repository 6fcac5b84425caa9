package dto

import (
	"time"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
)

// UserResponse - пользователь в форме ответа API
type UserResponse struct {
	ID        uint                   `json:"id"`
	Username  string                 `json:"username"`
	Email     string                 `json:"email"`
	FirstName string                 `json:"first_name"`
	LastName  string                 `json:"last_name"`
	Avatar    string                 `json:"avatar"`
	Prefs     entity.UserPreferences `json:"preferences"`
	Stats     entity.UserStats       `json:"stats"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewUserResponse преобразует сущность в ответ API
func NewUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Avatar:    user.Avatar,
		Prefs:     user.Prefs,
		Stats:     user.Stats,
		CreatedAt: user.CreatedAt,
	}
}

// AuthResponse - ответ на регистрацию и вход
type AuthResponse struct {
	User  *UserResponse `json:"user"`
	Token string        `json:"token"`
}
