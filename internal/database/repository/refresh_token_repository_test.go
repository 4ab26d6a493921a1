package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/keygate/backend-go/internal/database/models"
)

// setupTestDB creates a new in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// Serialize access: in-memory SQLite does not tolerate concurrent writers
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.RefreshToken{})
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	user := &models.User{
		Email:         uuid.NewString() + "@example.com",
		Password:      "hashedpassword",
		Name:          "Test User",
		Role:          models.RoleUser,
		EmailVerified: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newTestRecord(userID uuid.UUID, familyID string) *models.RefreshToken {
	return &models.RefreshToken{
		UserID:    userID,
		JTI:       uuid.NewString(),
		FamilyID:  familyID,
		TokenHash: "hash-" + uuid.NewString(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
}

func TestRefreshTokenRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefreshTokenRepository(db)
	user := createTestUser(t, db)

	record := newTestRecord(user.ID, "family-1")
	require.NoError(t, repo.Create(record))
	assert.NotEqual(t, uuid.Nil, record.ID)

	found, err := repo.FindByJTI(record.JTI)
	require.NoError(t, err)
	assert.Equal(t, record.JTI, found.JTI)
	assert.Equal(t, user.ID, found.UserID)
	assert.Nil(t, found.RevokedAt)
	assert.Nil(t, found.ReplacedByJTI)

	_, err = repo.FindByJTI("unknown-jti")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRefreshTokenRepository_DuplicateJTI(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefreshTokenRepository(db)
	user := createTestUser(t, db)

	record := newTestRecord(user.ID, "family-1")
	require.NoError(t, repo.Create(record))

	dup := newTestRecord(user.ID, "family-1")
	dup.JTI = record.JTI
	assert.ErrorIs(t, repo.Create(dup), ErrDuplicateJTI)
}

func TestRefreshTokenRepository_FindByFamilyID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefreshTokenRepository(db)
	user := createTestUser(t, db)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(newTestRecord(user.ID, "family-a")))
	}
	require.NoError(t, repo.Create(newTestRecord(user.ID, "family-b")))

	tokens, err := repo.FindByFamilyID("family-a")
	require.NoError(t, err)
	assert.Len(t, tokens, 3)

	tokens, err = repo.FindByFamilyID("family-missing")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestRefreshTokenRepository_TryRevokeAndLink(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefreshTokenRepository(db)
	user := createTestUser(t, db)

	record := newTestRecord(user.ID, "family-1")
	require.NoError(t, repo.Create(record))

	newJTI := uuid.NewString()
	won, err := repo.TryRevokeAndLink(record.JTI, newJTI)
	require.NoError(t, err)
	assert.True(t, won)

	found, err := repo.FindByJTI(record.JTI)
	require.NoError(t, err)
	require.NotNil(t, found.RevokedAt)
	require.NotNil(t, found.ReplacedByJTI)
	assert.Equal(t, newJTI, *found.ReplacedByJTI)

	// A second attempt must lose: the transition is terminal
	won, err = repo.TryRevokeAndLink(record.JTI, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, won)

	// The loser must not overwrite the winner's link
	found, err = repo.FindByJTI(record.JTI)
	require.NoError(t, err)
	assert.Equal(t, newJTI, *found.ReplacedByJTI)
}

func TestRefreshTokenRepository_TryRevokeAndLink_UnknownJTI(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefreshTokenRepository(db)

	won, err := repo.TryRevokeAndLink("no-such-jti", uuid.NewString())
	require.NoError(t, err)
	assert.False(t, won)
}

func TestRefreshTokenRepository_TryRevokeAndLink_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefreshTokenRepository(db)
	user := createTestUser(t, db)

	record := newTestRecord(user.ID, "family-1")
	require.NoError(t, repo.Create(record))

	const racers = 16

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			won, err := repo.TryRevokeAndLink(record.JTI, uuid.NewString())
			assert.NoError(t, err)
			if won {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}

	close(start)
	wg.Wait()

	// Exactly one racer may observe the unrevoked -> revoked transition
	assert.Equal(t, 1, wins)

	found, err := repo.FindByJTI(record.JTI)
	require.NoError(t, err)
	assert.NotNil(t, found.RevokedAt)
	assert.NotNil(t, found.ReplacedByJTI)
}

func TestRefreshTokenRepository_RevokeFamily(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefreshTokenRepository(db)
	user := createTestUser(t, db)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(newTestRecord(user.ID, "family-a")))
	}
	other := newTestRecord(user.ID, "family-b")
	require.NoError(t, repo.Create(other))

	require.NoError(t, repo.RevokeFamily("family-a"))

	tokens, err := repo.FindByFamilyID("family-a")
	require.NoError(t, err)
	for _, tok := range tokens {
		assert.NotNil(t, tok.RevokedAt)
		// Family revocation never links a successor
		assert.Nil(t, tok.ReplacedByJTI)
	}

	// Unrelated families stay untouched
	found, err := repo.FindByJTI(other.JTI)
	require.NoError(t, err)
	assert.Nil(t, found.RevokedAt)
}

func TestRefreshTokenRepository_RevokeAllForUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefreshTokenRepository(db)
	user := createTestUser(t, db)
	otherUser := createTestUser(t, db)

	require.NoError(t, repo.Create(newTestRecord(user.ID, "family-a")))
	require.NoError(t, repo.Create(newTestRecord(user.ID, "family-b")))
	otherRecord := newTestRecord(otherUser.ID, "family-c")
	require.NoError(t, repo.Create(otherRecord))

	require.NoError(t, repo.RevokeAllForUser(user.ID))

	for _, familyID := range []string{"family-a", "family-b"} {
		tokens, err := repo.FindByFamilyID(familyID)
		require.NoError(t, err)
		for _, tok := range tokens {
			assert.NotNil(t, tok.RevokedAt)
		}
	}

	found, err := repo.FindByJTI(otherRecord.JTI)
	require.NoError(t, err)
	assert.Nil(t, found.RevokedAt)

	// Idempotent: a repeated call is a no-op
	require.NoError(t, repo.RevokeAllForUser(user.ID))
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefreshTokenRepository(db)
	user := createTestUser(t, db)

	expired := newTestRecord(user.ID, "family-a")
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(expired))

	live := newTestRecord(user.ID, "family-a")
	require.NoError(t, repo.Create(live))

	deleted, err := repo.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByJTI(expired.JTI)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = repo.FindByJTI(live.JTI)
	assert.NoError(t, err)
}
