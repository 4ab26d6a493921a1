package service

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/keygate/backend-go/internal/database/models"
	"github.com/keygate/backend-go/internal/database/repository"
)

// UserService defines the interface for user business logic
type UserService interface {
	GetUser(userID uuid.UUID) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(userID uuid.UUID, name string) (*models.User, error)
	DeleteUser(userID uuid.UUID) error
	ListUsers(page, limit int) ([]models.User, *PaginationMeta, error)
}

// PaginationMeta describes one page of a listing
type PaginationMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type userService struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// NewUserService creates a new user service instance
func NewUserService(userRepo repository.UserRepository, logger *slog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *userService) GetUser(userID uuid.UUID) (*models.User, error) {
	return s.userRepo.FindByID(userID)
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.userRepo.FindByEmail(email)
}

func (s *userService) UpdateUser(userID uuid.UUID, name string) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	user.Name = name

	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("❌ [UserService] Failed to update user", "user_id", userID, "error", err)
		return nil, err
	}

	s.logger.Info("✅ [UserService] User updated", "user_id", userID)
	return user, nil
}

func (s *userService) DeleteUser(userID uuid.UUID) error {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return err
	}

	if err := s.userRepo.Delete(userID); err != nil {
		s.logger.Error("❌ [UserService] Failed to delete user", "user_id", userID, "error", err)
		return err
	}

	s.logger.Info("🗑️ [UserService] User deleted", "user_id", userID)
	return nil
}

func (s *userService) ListUsers(page, limit int) ([]models.User, *PaginationMeta, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	users, total, err := s.userRepo.List(page, limit)
	if err != nil {
		return nil, nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return users, &PaginationMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}
