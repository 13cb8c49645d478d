package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tes/survey-portal/survey-portal-backend/internal/surveys"
)

// ErrInvalidCredentials covers both unknown emails and bad passwords so the
// login response does not reveal which one failed.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Service issues session tokens
type Service struct {
	repo   surveys.Repository
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a new auth service
func NewService(repo surveys.Repository, secret []byte, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{repo: repo, secret: secret, ttl: ttl, logger: logger}
}

// Login verifies email+password against the profile store and returns a
// signed session token with its expiry.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	profile, err := s.repo.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, surveys.ErrNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   profile.ID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	s.logger.Info("User logged in", zap.String("user_id", profile.ID.String()))
	return signed, expiresAt, nil
}
