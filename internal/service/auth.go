package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/templui/filesmanager/internal/metrics"
	"github.com/templui/filesmanager/internal/model"
	"github.com/templui/filesmanager/internal/repository"
	"github.com/templui/filesmanager/internal/session"
	"golang.org/x/crypto/bcrypt"
)

// SessionStore keeps session tokens. Implemented by *session.Store.
type SessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	UserID(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

type AuthService struct {
	userRepository repository.UserRepository
	sessions       SessionStore
}

func NewAuthService(userRepository repository.UserRepository, sessions SessionStore) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		sessions:       sessions,
	}
}

// Connect checks credentials and opens a session, returning its token.
func (s *AuthService) Connect(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepository.ByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		metrics.RecordAuthAttempt(false)
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		metrics.RecordAuthAttempt(false)
		return "", ErrUnauthorized
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", err
	}

	metrics.RecordAuthAttempt(true)
	return token, nil
}

// Disconnect revokes the session behind token.
func (s *AuthService) Disconnect(ctx context.Context, token string) error {
	_, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a session token to its user. Unknown, expired and
// orphaned sessions all yield ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	userID, err := s.sessions.UserID(ctx, token)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
