package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/signverse/signverse-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Users interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// PendingRegistrations stores unverified signups. The Active lookups treat a
// record whose expiry is not after now as absent.
type PendingRegistrations interface {
	Create(ctx context.Context, p *models.PendingRegistration) error
	FindByEmail(ctx context.Context, email string) (*models.PendingRegistration, error)
	FindActiveByEmail(ctx context.Context, email string, now time.Time) (*models.PendingRegistration, error)
	FindActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.PendingRegistration, error)
	UpdateToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Manager hands out stores bound to one connection or transaction.
type Manager interface {
	Users() Users
	PendingRegistrations() PendingRegistrations
	// RunInTx runs fn with a Manager whose stores share one transaction.
	// A non-nil error from fn rolls the transaction back.
	RunInTx(ctx context.Context, fn func(tx Manager) error) error
	Ping(ctx context.Context) error
}

// SystemLogs persists ERROR+ application log records.
type SystemLogs interface {
	CreateBatch(ctx context.Context, entries []models.SystemLog) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
