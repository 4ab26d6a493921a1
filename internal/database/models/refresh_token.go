package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken is one row per issued refresh token. Tokens issued by
// rotating within the same chain share a FamilyID; the raw token string
// is never stored, only its hash.
type RefreshToken struct {
	ID            uuid.UUID  `gorm:"type:uuid;primarykey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	JTI           string     `gorm:"uniqueIndex;not null" json:"jti"`
	FamilyID      string     `gorm:"not null;index" json:"family_id"`
	TokenHash     string     `gorm:"not null" json:"-"`
	ReplacedByJTI *string    `json:"replaced_by_jti,omitempty"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
	ExpiresAt     time.Time  `gorm:"not null" json:"expires_at"`
	UserAgent     *string    `json:"user_agent,omitempty"`
	IP            *string    `json:"ip,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	User          User       `gorm:"foreignKey:UserID" json:"-"`
}

// TableName overrides the table name
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// BeforeCreate assigns a UUID primary key when none is set
func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsRevoked reports whether the record has been terminally revoked.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired reports whether the record's absolute expiry has passed.
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
