package services

import (
	"context"
	"fmt"
	"time"

	"cafe/internal/models"
	"cafe/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Claims is what a token says about its holder.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// IsAdmin reports whether the holder may use the staff console.
func (c *Claims) IsAdmin() bool { return c != nil && c.Role == models.RoleAdmin }

// AuthService issues and checks tokens for users known to the service.
// Passwords are handled by the identity provider, not here.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
	}
}

// IssueToken signs a token for an existing user, carrying their role.
func (s *AuthService) IssueToken(ctx context.Context, userID string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: user.ID,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenDurat).Unix(),
		},
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate token")
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.WithError(err).Debug("Token validation failed")
		return nil, errors.Wrap(ErrUnauthorized, err.Error())
	}
	if !token.Valid {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// ValidateAdminToken is ValidateToken restricted to staff.
func (s *AuthService) ValidateAdminToken(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() {
		return nil, errors.Wrapf(ErrUnauthorized, "user %s is not an admin", claims.UserID)
	}
	return claims, nil
}
