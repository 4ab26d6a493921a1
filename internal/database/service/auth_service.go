package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/keygate/backend-go/internal/config"
	"github.com/keygate/backend-go/internal/database/models"
	"github.com/keygate/backend-go/internal/database/repository"
	"github.com/keygate/backend-go/internal/mail"
	"github.com/keygate/backend-go/internal/token"
)

// AuthService defines the interface for authentication business logic,
// including the refresh-token rotation state machine.
type AuthService interface {
	SignUp(email, password, name string) error
	SignIn(email, password, userAgent, ip string) (*models.User, *TokenPair, error)
	VerifyEmail(verificationToken string) (*TokenPair, error)
	ResendVerification(email string) error
	Refresh(refreshToken, userAgent, ip string) (*TokenPair, error)
	SignOut(userID uuid.UUID) error
	ValidateAccessToken(tokenString string) (*token.AccessClaims, error)
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type authService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	codec            *token.Codec
	mailer           mail.Sender
	cfg              *config.Config
	logger           *slog.Logger
}

// NewAuthService creates a new authentication service instance
func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	codec *token.Codec,
	mailer mail.Sender,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		codec:            codec,
		mailer:           mailer,
		cfg:              cfg,
		logger:           logger,
	}
}

func (s *authService) SignUp(email, password, name string) error {
	s.logger.Info("📝 [AuthService] Sign-up attempt", "email", email)

	existingUser, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return err
	}

	if existingUser != nil {
		s.logger.Warn("⚠️ [AuthService] Email already registered", "email", email)
		return ErrEmailAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to hash password", "error", err)
		return err
	}

	verificationToken, err := generateVerificationToken()
	if err != nil {
		return err
	}
	verificationExpires := time.Now().Add(24 * time.Hour)

	user := &models.User{
		Email:                    email,
		Password:                 string(hashedPassword),
		Name:                     name,
		Role:                     models.RoleUser,
		EmailVerificationToken:   &verificationToken,
		EmailVerificationExpires: &verificationExpires,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return ErrEmailAlreadyExists
		}
		s.logger.Error("❌ [AuthService] Failed to create user", "error", err)
		return err
	}

	// Delivery failures must not fail registration; the token can be resent
	go func() {
		if err := s.mailer.SendVerificationEmail(email, verificationToken, name); err != nil {
			s.logger.Warn("⚠️ [AuthService] Verification email not delivered", "email", email)
		}
	}()

	s.logger.Info("✅ [AuthService] User registered, verification pending", "user_id", user.ID)
	return nil
}

func (s *authService) SignIn(email, password, userAgent, ip string) (*models.User, *TokenPair, error) {
	s.logger.Info("🔐 [AuthService] Sign-in attempt", "email", email)

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("⚠️ [AuthService] User not found", "email", email)
			return nil, nil, ErrInvalidCredentials
		}
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Warn("⚠️ [AuthService] Invalid password", "email", email)
		return nil, nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		s.logger.Warn("⚠️ [AuthService] Email not verified", "email", email)
		return nil, nil, ErrEmailNotVerified
	}

	// A sign-in starts a fresh token family
	tokens, err := s.issueTokenPair(user, "", userAgent, ip)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to generate tokens", "error", err)
		return nil, nil, err
	}

	s.logger.Info("✅ [AuthService] User signed in successfully", "user_id", user.ID)
	return user, tokens, nil
}

func (s *authService) VerifyEmail(verificationToken string) (*TokenPair, error) {
	s.logger.Info("✉️ [AuthService] Email verification attempt")

	user, err := s.userRepo.FindByVerificationToken(verificationToken)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if user.EmailVerificationExpires != nil && user.EmailVerificationExpires.Before(time.Now()) {
		return nil, ErrExpiredToken
	}

	user.EmailVerified = true
	user.EmailVerificationToken = nil
	user.EmailVerificationExpires = nil

	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("❌ [AuthService] Failed to mark email verified", "error", err)
		return nil, err
	}

	// Verification seeds a fresh token family, like a sign-in
	tokens, err := s.issueTokenPair(user, "", "", "")
	if err != nil {
		return nil, err
	}

	s.logger.Info("✅ [AuthService] Email verified", "user_id", user.ID)
	return tokens, nil
}

func (s *authService) ResendVerification(email string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Silent return so the endpoint does not reveal account existence
			return nil
		}
		return err
	}

	if user.EmailVerified {
		return nil
	}

	verificationToken, err := generateVerificationToken()
	if err != nil {
		return err
	}
	verificationExpires := time.Now().Add(24 * time.Hour)

	user.EmailVerificationToken = &verificationToken
	user.EmailVerificationExpires = &verificationExpires

	if err := s.userRepo.Update(user); err != nil {
		return err
	}

	go func() {
		if err := s.mailer.SendVerificationEmail(email, verificationToken, user.Name); err != nil {
			s.logger.Warn("⚠️ [AuthService] Verification email not delivered", "email", email)
		}
	}()

	s.logger.Info("📨 [AuthService] Verification email resent", "user_id", user.ID)
	return nil
}

// Refresh exchanges a valid refresh token for a new pair, revoking the old
// one. Exactly one of N concurrent callers presenting the same token wins
// the conditional revoke; losers within the grace window are treated as
// benign client retries, losers outside it trip reuse detection and the
// whole family is revoked.
func (s *authService) Refresh(refreshToken, userAgent, ip string) (*TokenPair, error) {
	s.logger.Info("🔄 [AuthService] Token rotation attempt")

	claims, err := s.codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	subject, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	record, err := s.refreshTokenRepo.FindByJTI(claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			s.logger.Warn("⚠️ [AuthService] Unknown jti presented")
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if record.UserID != subject {
		s.logger.Warn("⚠️ [AuthService] Token subject does not match ledger record", "jti", record.JTI)
		return nil, ErrInvalidToken
	}

	if record.IsExpired() {
		return nil, ErrExpiredToken
	}

	newJTI := uuid.NewString()
	won, err := s.refreshTokenRepo.TryRevokeAndLink(record.JTI, newJTI)
	if err != nil {
		s.logger.Error("❌ [AuthService] Ledger unavailable during rotation", "error", err)
		return nil, err
	}

	if !won {
		// Another caller already revoked this jti. Re-read to observe the
		// revocation timestamp committed by the winner.
		record, err = s.refreshTokenRepo.FindByJTI(claims.ID)
		if err != nil {
			return nil, err
		}

		// The grace window only excuses duplicates of a rotation: a record
		// revoked by sign-out or family revocation has no successor link and
		// must never rotate again.
		if record.RevokedAt != nil && record.ReplacedByJTI != nil && time.Since(*record.RevokedAt) < s.cfg.GraceWindow {
			s.logger.Warn("⚠️ [AuthService] Rotation retry within grace window", "family_id", record.FamilyID)
			return s.issueForUser(record.UserID, record.FamilyID, userAgent, ip)
		}

		// Reuse outside the grace window: likely theft. The family must be
		// revoked before the error is returned.
		s.logger.Warn("🚨 [AuthService] Refresh token reuse detected", "family_id", record.FamilyID)
		if err := s.refreshTokenRepo.RevokeFamily(record.FamilyID); err != nil {
			s.logger.Error("❌ [AuthService] Failed to revoke token family", "error", err)
			return nil, err
		}
		return nil, ErrTokenReuseDetected
	}

	tokens, err := s.issueForUserWithJTI(record.UserID, record.FamilyID, newJTI, userAgent, ip)
	if err != nil {
		return nil, err
	}

	s.logger.Info("✅ [AuthService] Token rotated successfully", "user_id", record.UserID, "family_id", record.FamilyID)
	return tokens, nil
}

func (s *authService) SignOut(userID uuid.UUID) error {
	s.logger.Info("👋 [AuthService] Sign-out", "user_id", userID)

	if err := s.refreshTokenRepo.RevokeAllForUser(userID); err != nil {
		s.logger.Error("❌ [AuthService] Failed to revoke user tokens", "error", err)
		return err
	}

	return nil
}

func (s *authService) ValidateAccessToken(tokenString string) (*token.AccessClaims, error) {
	claims, err := s.codec.VerifyAccessToken(tokenString)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) issueForUser(userID uuid.UUID, familyID, userAgent, ip string) (*TokenPair, error) {
	return s.issueForUserWithJTI(userID, familyID, uuid.NewString(), userAgent, ip)
}

func (s *authService) issueForUserWithJTI(userID uuid.UUID, familyID, jti, userAgent, ip string) (*TokenPair, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, err
	}
	return s.issueTokenPairWithJTI(user, familyID, jti, userAgent, ip)
}

// issueTokenPair mints an access/refresh pair and persists the refresh
// record. An empty familyID starts a new rotation chain.
func (s *authService) issueTokenPair(user *models.User, familyID, userAgent, ip string) (*TokenPair, error) {
	return s.issueTokenPairWithJTI(user, familyID, uuid.NewString(), userAgent, ip)
}

func (s *authService) issueTokenPairWithJTI(user *models.User, familyID, jti, userAgent, ip string) (*TokenPair, error) {
	if familyID == "" {
		familyID = uuid.NewString()
	}

	accessToken, err := s.codec.IssueAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.codec.IssueRefreshToken(user.ID, jti)
	if err != nil {
		return nil, err
	}

	record := &models.RefreshToken{
		UserID:    user.ID,
		JTI:       jti,
		FamilyID:  familyID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: time.Now().Add(time.Duration(s.cfg.RefreshRecordLifetime) * time.Second),
	}
	if userAgent != "" {
		record.UserAgent = &userAgent
	}
	if ip != "" {
		record.IP = &ip
	}

	if err := s.refreshTokenRepo.Create(record); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.cfg.AccessTokenExpiration,
	}, nil
}

// hashToken produces the one-way hash stored in place of the raw token.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func generateVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Service errors
var (
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrTokenReuseDetected = errors.New("token reuse detected")
)
