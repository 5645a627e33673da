package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cafe/internal/models"
	"cafe/internal/repositories"
	"cafe/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

const testSecret = "test_secret_key"

func TestAuthService_IssueAndValidateToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testSecret)

	admin := &models.User{ID: "admin-1", Name: "Staff", Email: "staff@example.com", Role: models.RoleAdmin}
	mockRepo.On("GetByID", mock.Anything, "admin-1").Return(admin, nil).Once()

	token, err := authService.IssueToken(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.True(t, claims.IsAdmin())

	claims, err = authService.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)

	mockRepo.AssertExpectations(t)
}

func TestAuthService_IssueTokenUnknownUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testSecret)

	mockRepo.On("GetByID", mock.Anything, "ghost").Return(nil, repositories.ErrNotFound).Once()

	token, err := authService.IssueToken(context.Background(), "ghost")
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateAdminTokenRejectsCustomer(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testSecret)

	customer := &models.User{ID: "user-1", Role: models.RoleCustomer}
	mockRepo.On("GetByID", mock.Anything, "user-1").Return(customer, nil).Once()

	token, err := authService.IssueToken(context.Background(), "user-1")
	require.NoError(t, err)

	_, err = authService.ValidateToken(token)
	assert.NoError(t, err)

	_, err = authService.ValidateAdminToken(token)
	assert.True(t, errors.Is(err, services.ErrUnauthorized))
}

func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testSecret)

	_, err := authService.ValidateToken("invalid.token.string")
	assert.True(t, errors.Is(err, services.ErrUnauthorized))

	// Token signed with another secret
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, &services.Claims{
		UserID:         "admin-1",
		Role:           models.RoleAdmin,
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	})
	signed, err := other.SignedString([]byte("wrong_secret"))
	require.NoError(t, err)
	_, err = authService.ValidateToken(signed)
	assert.True(t, errors.Is(err, services.ErrUnauthorized))

	// Expired token
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &services.Claims{
		UserID:         "admin-1",
		Role:           models.RoleAdmin,
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Hour).Unix()},
	})
	signed, err = expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = authService.ValidateToken(signed)
	assert.True(t, errors.Is(err, services.ErrUnauthorized))
}
