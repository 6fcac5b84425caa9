package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	"github.com/yourusername/quizhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
	"github.com/yourusername/quizhub-api/pkg/auth"
)

// AuthService предоставляет регистрацию, вход и работу с профилем
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Register регистрирует нового пользователя и возвращает его вместе с токеном
func (s *AuthService) Register(username, email, password, firstName, lastName string) (*entity.User, string, error) {
	// Уникальность email и имени пользователя
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, "", fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", err
	}
	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil, "", fmt.Errorf("%w: username already taken", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", err
	}

	user := &entity.User{
		Username:  username,
		Email:     email,
		Password:  password, // хешируется хуком BeforeSave
		FirstName: firstName,
		LastName:  lastName,
		Role:      entity.RoleUser,
		IsActive:  true,
		Prefs: entity.UserPreferences{
			EmailNotifications: true,
			Theme:              "light",
		},
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, "", fmt.Errorf("не удалось создать пользователя: %w", err)
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[AuthService] Зарегистрирован пользователь %d (%s)", user.ID, user.Email)
	return user, token, nil
}

// Login проверяет учетные данные и возвращает пользователя с токеном
func (s *AuthService) Login(email, password string) (*entity.User, string, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", fmt.Errorf("%w: account is deactivated", apperrors.ErrForbidden)
	}
	if !user.CheckPassword(password) {
		return nil, "", fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		// не фатально для входа
		log.Printf("[AuthService] Не удалось обновить время входа пользователя %d: %v", user.ID, err)
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GetProfile возвращает пользователя по ID
func (s *AuthService) GetProfile(userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(userID)
}

// разрешённые к обновлению поля профиля
var allowedProfileFields = map[string]bool{
	"first_name":               true,
	"last_name":                true,
	"avatar":                   true,
	"pref_email_notifications": true,
	"pref_theme":               true,
}

// UpdateProfile обновляет разрешённые поля профиля пользователя
func (s *AuthService) UpdateProfile(userID uint, updates map[string]interface{}) (*entity.User, error) {
	filtered := make(map[string]interface{}, len(updates))
	for key, value := range updates {
		if allowedProfileFields[key] {
			filtered[key] = value
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields provided", apperrors.ErrValidation)
	}

	if err := s.userRepo.UpdateProfile(userID, filtered); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(userID)
}
