package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "USER"
	RoleModerator = "MODERATOR"
	RoleAdmin     = "ADMIN"
)

type User struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Name            string    `json:"name" gorm:"not null"`
	Email           string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash    string    `json:"-" gorm:"not null"`
	ProfilePhotoURL string    `json:"profile_photo_url"`
	Role            string    `json:"role" gorm:"size:16;not null"` // "USER", "MODERATOR", "ADMIN"
	Points          int       `json:"points"`
	Ranking         int       `json:"ranking"`
	IsActive        bool      `json:"is_active"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// NormalizeRole upper-cases a role and reports whether it is one we know.
func NormalizeRole(role string) (string, bool) {
	role = strings.ToUpper(strings.TrimSpace(role))
	switch role {
	case RoleUser, RoleModerator, RoleAdmin:
		return role, true
	}
	return "", false
}

// CanModerate reports whether the role may approve or reject listings.
func CanModerate(role string) bool {
	return role == RoleModerator || role == RoleAdmin
}
