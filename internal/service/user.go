package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/templui/filesmanager/internal/metrics"
	"github.com/templui/filesmanager/internal/model"
	"github.com/templui/filesmanager/internal/repository"
	"github.com/templui/filesmanager/internal/validation"
)

type UserService struct {
	userRepository repository.UserRepository
	authService    *AuthService
	emailService   *EmailService
	welcome        Enqueuer
}

func NewUserService(
	userRepository repository.UserRepository,
	authService *AuthService,
	emailService *EmailService,
	welcome Enqueuer,
) *UserService {
	return &UserService{
		userRepository: userRepository,
		authService:    authService,
		emailService:   emailService,
		welcome:        welcome,
	}
}

// Register creates a user and queues the welcome email.
func (s *UserService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, err
	}

	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, err
	}

	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}

	err = s.userRepository.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, ErrEmailAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	_, err = s.welcome.Add(ctx, model.WelcomeJob{UserID: user.ID})
	metrics.RecordJobEnqueued(model.QueueWelcome, err == nil)
	if err != nil {
		// The account exists; a missing welcome email is not worth failing registration
		slog.Error("failed to enqueue welcome job", "user_id", user.ID, "error", err)
	}

	return user, nil
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SendWelcome delivers the welcome email for a freshly registered user.
func (s *UserService) SendWelcome(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("missing userId")
	}

	user, err := s.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user %s: %w", userID, err)
	}

	return s.emailService.SendWelcomeEmail(ctx, user.Email)
}
