package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/quizhub-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
	"github.com/yourusername/quizhub-api/pkg/auth"
)

// newAuthServiceForTest собирает сервис с моком репозитория и настоящим
// JWT-сервисом: подпись токена не требует внешних зависимостей
func newAuthServiceForTest(t *testing.T) (*AuthService, *MockUserRepository) {
	t.Helper()
	jwtService, err := auth.NewJWTService("test-secret-key-for-tests", 24)
	require.NoError(t, err)

	userRepo := new(MockUserRepository)
	return NewAuthService(userRepo, jwtService), userRepo
}

func TestRegister_Success(t *testing.T) {
	svc, userRepo := newAuthServiceForTest(t)

	userRepo.On("GetByEmail", "alice@example.com").Return(nil, apperrors.ErrNotFound).Once()
	userRepo.On("GetByUsername", "alice").Return(nil, apperrors.ErrNotFound).Once()
	userRepo.On("Create", mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) {
			args.Get(0).(*entity.User).ID = 1
		}).Return(nil).Once()

	user, token, err := svc.Register("alice", "alice@example.com", "secret-password", "Alice", "Smith")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	assert.Equal(t, entity.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.True(t, user.Prefs.EmailNotifications)
	assert.Equal(t, "light", user.Prefs.Theme)

	userRepo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, userRepo := newAuthServiceForTest(t)

	userRepo.On("GetByEmail", "alice@example.com").Return(&entity.User{ID: 1}, nil).Once()

	_, _, err := svc.Register("alice", "alice@example.com", "secret-password", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	userRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, userRepo := newAuthServiceForTest(t)

	userRepo.On("GetByEmail", "alice@example.com").Return(nil, apperrors.ErrNotFound).Once()
	userRepo.On("GetByUsername", "alice").Return(&entity.User{ID: 2}, nil).Once()

	_, _, err := svc.Register("alice", "alice@example.com", "secret-password", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

// activeUserWithPassword создает пользователя с bcrypt-хешем пароля
func activeUserWithPassword(t *testing.T, password string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &entity.User{
		ID:       1,
		Username: "alice",
		Email:    "alice@example.com",
		Password: string(hash),
		IsActive: true,
	}
}

func TestLogin_Success(t *testing.T) {
	svc, userRepo := newAuthServiceForTest(t)

	user := activeUserWithPassword(t, "secret-password")
	userRepo.On("GetByEmail", "alice@example.com").Return(user, nil).Once()
	userRepo.On("UpdateLastLogin", uint(1)).Return(nil).Once()

	got, token, err := svc.Login("alice@example.com", "secret-password")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user, got)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, userRepo := newAuthServiceForTest(t)

	userRepo.On("GetByEmail", "alice@example.com").Return(activeUserWithPassword(t, "secret-password"), nil).Once()

	_, _, err := svc.Login("alice@example.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, userRepo := newAuthServiceForTest(t)

	userRepo.On("GetByEmail", "nobody@example.com").Return(nil, apperrors.ErrNotFound).Once()

	_, _, err := svc.Login("nobody@example.com", "whatever")
	require.Error(t, err)
	// Отсутствие и неверный пароль неразличимы для клиента
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	svc, userRepo := newAuthServiceForTest(t)

	user := activeUserWithPassword(t, "secret-password")
	user.IsActive = false
	userRepo.On("GetByEmail", "alice@example.com").Return(user, nil).Once()

	_, _, err := svc.Login("alice@example.com", "secret-password")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUpdateProfile_FiltersFields(t *testing.T) {
	svc, userRepo := newAuthServiceForTest(t)

	var applied map[string]interface{}
	userRepo.On("UpdateProfile", uint(1), mock.Anything).
		Run(func(args mock.Arguments) {
			applied = args.Get(1).(map[string]interface{})
		}).Return(nil).Once()
	userRepo.On("GetByID", uint(1)).Return(&entity.User{ID: 1}, nil).Once()

	// role, password и статистика не входят в разрешённые поля
	_, err := svc.UpdateProfile(1, map[string]interface{}{
		"first_name":       "Alice",
		"pref_theme":       "dark",
		"role":             "admin",
		"password":         "hacked",
		"stat_total_score": 9999,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"first_name": "Alice",
		"pref_theme": "dark",
	}, applied)
}

func TestUpdateProfile_NoAllowedFields(t *testing.T) {
	svc, userRepo := newAuthServiceForTest(t)

	_, err := svc.UpdateProfile(1, map[string]interface{}{"role": "admin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	userRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}
