package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keygate/backend-go/internal/database/models"
)

// RefreshTokenRepository is the durable ledger of refresh-token records.
// All rotation safety reduces to the atomicity of TryRevokeAndLink.
type RefreshTokenRepository interface {
	Create(token *models.RefreshToken) error
	FindByJTI(jti string) (*models.RefreshToken, error)
	FindByFamilyID(familyID string) ([]models.RefreshToken, error)
	// TryRevokeAndLink atomically transitions the record matching jti from
	// unrevoked to revoked, linking it to its successor. Returns true only
	// for the single caller that performed the transition.
	TryRevokeAndLink(jti, newJTI string) (bool, error)
	RevokeFamily(familyID string) error
	RevokeAllForUser(userID uuid.UUID) error
	DeleteExpired() (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new refresh token repository instance
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(token *models.RefreshToken) error {
	err := r.db.Create(token).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateJTI
	}
	return err
}

func (r *refreshTokenRepository) FindByJTI(jti string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	err := r.db.Where("jti = ?", jti).First(&refreshToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &refreshToken, nil
}

func (r *refreshTokenRepository) FindByFamilyID(familyID string) ([]models.RefreshToken, error) {
	var tokens []models.RefreshToken
	err := r.db.Where("family_id = ?", familyID).Order("created_at ASC").Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// TryRevokeAndLink is a single conditional UPDATE guarded by
// "revoked_at IS NULL". Under concurrent callers racing on the same jti
// the database grants the row to exactly one of them; the rest see zero
// rows affected and must apply grace-window or reuse policy.
func (r *refreshTokenRepository) TryRevokeAndLink(jti, newJTI string) (bool, error) {
	result := r.db.Model(&models.RefreshToken{}).
		Where("jti = ? AND revoked_at IS NULL", jti).
		Updates(map[string]interface{}{
			"revoked_at":      time.Now(),
			"replaced_by_jti": newJTI,
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *refreshTokenRepository) RevokeFamily(familyID string) error {
	return r.db.Model(&models.RefreshToken{}).
		Where("family_id = ? AND revoked_at IS NULL", familyID).
		Update("revoked_at", time.Now()).Error
}

func (r *refreshTokenRepository) RevokeAllForUser(userID uuid.UUID) error {
	return r.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
}

func (r *refreshTokenRepository) DeleteExpired() (int64, error) {
	result := r.db.Where("expires_at < ?", time.Now()).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

// Repository errors
var (
	ErrTokenNotFound = errors.New("token not found")
	ErrDuplicateJTI  = errors.New("duplicate token id")
)
