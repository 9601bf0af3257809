package models

import (
	"time"

	"github.com/google/uuid"
)

// PendingRegistration is a signup awaiting email confirmation. Only the
// SHA-256 of the mailed token is stored.
type PendingRegistration struct {
	ID                       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FullName                 string    `gorm:"size:255;not null"`
	Email                    string    `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash             string    `gorm:"not null"`
	Role                     Role      `gorm:"size:20;not null"`
	VerificationTokenHash    string    `gorm:"size:64;not null;uniqueIndex"`
	VerificationTokenExpires time.Time `gorm:"not null;index"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// IsExpired reports whether the token can no longer be used at now.
func (p *PendingRegistration) IsExpired(now time.Time) bool {
	return !p.VerificationTokenExpires.After(now)
}
