package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/signverse/signverse-backend/internal/models"
	"github.com/signverse/signverse-backend/internal/repository"
	"github.com/signverse/signverse-backend/internal/session"
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

type RegisterInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (in *RegisterInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalizeEmail(in.Email)
	in.Role = strings.TrimSpace(in.Role)
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FullName, validation.Required.Error("full name is required")),
		validation.Field(&in.Email, validation.Required.Error("email is required"), is.Email.Error("must be a valid email address")),
		validation.Field(&in.Password, passwordRules()...),
		validation.Field(&in.Role,
			validation.Required.Error("role is required"),
			validation.By(validRole),
		),
	)
}

type RegisterResult struct {
	Email     string
	ExpiresAt time.Time
}

type VerifyResult struct {
	User           *models.User
	SessionToken   string
	SessionExpires time.Time
}

// RegistrationService moves an email through NONE -> PENDING -> VERIFIED.
// Expiry is never stored as state: a pending record is live only while its
// expiry lies after now.
type RegistrationService struct {
	repo     repository.Manager
	hasher   PasswordHasher
	tokens   TokenGenerator
	mailer   Mailer
	sessions *session.Issuer
	events   EventPublisher
	tokenTTL time.Duration
	now      func() time.Time
}

func NewRegistrationService(
	repo repository.Manager,
	hasher PasswordHasher,
	tokens TokenGenerator,
	mailer Mailer,
	sessions *session.Issuer,
	tokenTTL time.Duration,
) *RegistrationService {
	return &RegistrationService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		sessions: sessions,
		events:   noopPublisher{},
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

func (s *RegistrationService) WithEvents(p EventPublisher) *RegistrationService {
	if p != nil {
		s.events = p
	}
	return s
}

func (s *RegistrationService) WithClock(now func() time.Time) *RegistrationService {
	s.now = now
	return s
}

func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.normalize()
	if err := fromValidation(in.Validate()); err != nil {
		return nil, err
	}

	if _, err := s.repo.Users().FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}
	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	pending := &models.PendingRegistration{
		ID:                       uuid.New(),
		FullName:                 in.FullName,
		Email:                    in.Email,
		PasswordHash:             passwordHash,
		Role:                     models.Role(in.Role),
		VerificationTokenHash:    hashToken(token),
		VerificationTokenExpires: s.now().Add(s.tokenTTL),
	}

	err = s.repo.RunInTx(ctx, func(tx repository.Manager) error {
		existing, err := tx.PendingRegistrations().FindByEmail(ctx, in.Email)
		switch {
		case err == nil:
			// ErrNotFound: a concurrent register replaced it first; the
			// insert below then fails on the unique email index.
			err := tx.PendingRegistrations().Delete(ctx, existing.ID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		return tx.PendingRegistrations().Create(ctx, pending)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create pending registration: %w", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, in.Email, token); err != nil {
		slog.Error("verification email failed", "action", "register", "email", in.Email, "error", err)
		// A pending record nobody can verify must not survive.
		delErr := s.repo.PendingRegistrations().Delete(context.WithoutCancel(ctx), pending.ID)
		if delErr != nil && !errors.Is(delErr, repository.ErrNotFound) {
			slog.Error("failed to roll back pending registration", "email", in.Email, "error", delErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}

	slog.Info("pending registration created", "action", "register", "email", in.Email, "role", in.Role)
	s.publish(ctx, "registration.created", in.Email, map[string]interface{}{
		"email":      in.Email,
		"role":       in.Role,
		"expires_at": pending.VerificationTokenExpires,
	})

	return &RegisterResult{Email: in.Email, ExpiresAt: pending.VerificationTokenExpires}, nil
}

// VerifyEmail promotes the pending registration owning token to a User and
// deletes it in the same transaction, so a token verifies at most once.
func (s *RegistrationService) VerifyEmail(ctx context.Context, token string) (*VerifyResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	now := s.now()
	var user *models.User

	err := s.repo.RunInTx(ctx, func(tx repository.Manager) error {
		pending, err := tx.PendingRegistrations().FindActiveByTokenHash(ctx, hashToken(token), now)
		if err != nil {
			return err
		}

		u := &models.User{
			ID:              uuid.New(),
			FullName:        pending.FullName,
			Email:           pending.Email,
			PasswordHash:    pending.PasswordHash,
			Role:            pending.Role,
			IsEmailVerified: true,
			LastLogin:       &now,
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		if err := tx.PendingRegistrations().Delete(ctx, pending.ID); err != nil {
			return err
		}
		user = u
		return nil
	})
	// A duplicate means a concurrent call already consumed the token.
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrInvalidOrExpiredToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to promote pending registration: %w", err)
	}

	sessionToken, expiresAt, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	slog.Info("email verified", "action", "verify_email", "user_id", user.ID.String(), "email", user.Email)
	s.publish(ctx, "user.verified", user.Email, map[string]interface{}{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    string(user.Role),
	})

	return &VerifyResult{User: user, SessionToken: sessionToken, SessionExpires: expiresAt}, nil
}

// ResendVerification rotates the token of a live pending registration and
// mails it again. The record survives a mail failure.
func (s *RegistrationService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	err := validation.Errors{
		"email": validation.Validate(email,
			validation.Required.Error("email is required"),
			is.Email.Error("must be a valid email address"),
		),
	}.Filter()
	if err := fromValidation(err); err != nil {
		return err
	}

	if _, err := s.repo.Users().FindByEmail(ctx, email); err == nil {
		return ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	now := s.now()
	pending, err := s.repo.PendingRegistrations().FindActiveByEmail(ctx, email, now)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up pending registration: %w", err)
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}
	expires := now.Add(s.tokenTTL)
	if err := s.repo.PendingRegistrations().UpdateToken(ctx, pending.ID, hashToken(token), expires); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to rotate verification token: %w", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, email, token); err != nil {
		slog.Error("verification email failed", "action", "resend_verification", "email", email, "error", err)
		return fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}

	slog.Info("verification email resent", "action", "resend_verification", "email", email)
	return nil
}

// PurgeExpired physically removes pending registrations past their expiry.
func (s *RegistrationService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.PendingRegistrations().DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired registrations: %w", err)
	}
	return n, nil
}

func (s *RegistrationService) publish(ctx context.Context, eventType, key string, payload map[string]interface{}) {
	payload["type"] = eventType
	payload["occurred_at"] = s.now().UTC()
	if err := s.events.Publish(ctx, key, payload); err != nil {
		slog.Warn("account event not published", "type", eventType, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("password is required"),
		validation.RuneLength(minPasswordLength, 0).Error("password must be at least 6 characters"),
		validation.By(func(value interface{}) error {
			if s, _ := value.(string); len(s) > maxPasswordBytes {
				return errors.New("password must be at most 72 bytes")
			}
			return nil
		}),
	}
}

func validRole(value interface{}) error {
	if s, _ := value.(string); !models.Role(s).Valid() {
		return errors.New("role must be student, teacher, admin, or deaf")
	}
	return nil
}
