package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/signverse/signverse-backend/internal/models"
	"github.com/signverse/signverse-backend/internal/repository"
	"github.com/signverse/signverse-backend/internal/session"
)

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	User           *models.User
	SessionToken   string
	SessionExpires time.Time
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthService handles credential checks for verified users.
type AuthService struct {
	repo     repository.Manager
	hasher   PasswordHasher
	sessions *session.Issuer
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(repo repository.Manager, hasher PasswordHasher, sessions *session.Issuer) *AuthService {
	return &AuthService{
		repo:     repo,
		hasher:   hasher,
		sessions: sessions,
		now:      time.Now,
	}
}

func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Login fails with ErrInvalidCredentials for an unknown email and for a wrong
// password alike.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.Users().FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		// Keep response timing close to the known-email path.
		_ = s.hasher.Compare(s.dummy(), in.Password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, in.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &now

	token, expiresAt, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", "action", "login", "user_id", user.ID.String())
	return &LoginResult{User: user, SessionToken: token, SessionExpires: expiresAt}, nil
}

// Me resolves the session's user. A token for a vanished user counts as
// unauthenticated.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.Users().FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return newValidationError("please provide both current and new password")
	}
	if len([]rune(in.NewPassword)) < minPasswordLength {
		return newValidationError("new password must be at least 6 characters")
	}
	if len(in.NewPassword) > maxPasswordBytes {
		return newValidationError("new password must be at most 72 bytes")
	}
	if in.NewPassword == in.CurrentPassword {
		return newValidationError("new password must differ from current password")
	}

	user, err := s.repo.Users().FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnauthenticated
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, in.CurrentPassword); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthenticated
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password changed", "action", "change_password", "user_id", user.ID.String())
	return nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			slog.Warn("failed to prepare dummy password hash", "error", err)
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
