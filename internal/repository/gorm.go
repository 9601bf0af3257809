package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/signverse/signverse-backend/internal/models"
)

const pgUniqueViolation = "23505"

type GormManager struct {
	db *gorm.DB
}

func NewGormManager(db *gorm.DB) *GormManager {
	return &GormManager{db: db}
}

func (m *GormManager) Users() Users {
	return &gormUsers{db: m.db}
}

func (m *GormManager) PendingRegistrations() PendingRegistrations {
	return &gormPending{db: m.db}
}

func (m *GormManager) RunInTx(ctx context.Context, fn func(tx Manager) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormManager{db: tx})
	})
}

func (m *GormManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translateError maps driver errors onto the package sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *gormUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *gormUsers) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{"last_login": at})
}

func (r *gormUsers) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.update(ctx, id, map[string]interface{}{"password_hash": passwordHash})
}

func (r *gormUsers) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormPending struct {
	db *gorm.DB
}

func (r *gormPending) Create(ctx context.Context, p *models.PendingRegistration) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return translateError(r.db.WithContext(ctx).Create(p).Error)
}

func (r *gormPending) FindByEmail(ctx context.Context, email string) (*models.PendingRegistration, error) {
	var p models.PendingRegistration
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (r *gormPending) FindActiveByEmail(ctx context.Context, email string, now time.Time) (*models.PendingRegistration, error) {
	var p models.PendingRegistration
	err := r.db.WithContext(ctx).
		Where("email = ? AND verification_token_expires > ?", email, now).
		First(&p).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (r *gormPending) FindActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.PendingRegistration, error) {
	var p models.PendingRegistration
	err := r.db.WithContext(ctx).
		Where("verification_token_hash = ? AND verification_token_expires > ?", tokenHash, now).
		First(&p).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (r *gormPending) UpdateToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.PendingRegistration{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"verification_token_hash":    tokenHash,
			"verification_token_expires": expires,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormPending) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PendingRegistration{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormPending) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("verification_token_expires <= ?", now).
		Delete(&models.PendingRegistration{})
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}
