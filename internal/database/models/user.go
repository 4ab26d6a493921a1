package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents the user domain entity
type User struct {
	ID                       uuid.UUID  `gorm:"type:uuid;primarykey" json:"id"`
	Email                    string     `gorm:"uniqueIndex;not null" json:"email"`
	Password                 string     `gorm:"not null" json:"-"`
	Name                     string     `gorm:"not null" json:"name"`
	Role                     string     `gorm:"not null;default:user" json:"role"`
	EmailVerified            bool       `gorm:"not null;default:false" json:"email_verified"`
	EmailVerificationToken   *string    `gorm:"index" json:"-"`
	EmailVerificationExpires *time.Time `json:"-"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID primary key when none is set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
