package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
	RoleDeaf    Role = "deaf"
)

// Roles lists every role a registration may request.
var Roles = []Role{RoleStudent, RoleTeacher, RoleAdmin, RoleDeaf}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User is a verified account. Rows are only created by promoting a
// PendingRegistration.
type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName        string     `gorm:"size:255;not null" json:"fullName"`
	Email           string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash    string     `gorm:"not null" json:"-"`
	Role            Role       `gorm:"size:20;not null" json:"role"`
	IsEmailVerified bool       `gorm:"not null;default:false" json:"isEmailVerified"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
