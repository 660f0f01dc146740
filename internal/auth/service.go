package auth

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/db/models"
)

// Service provides local authentication and staff checks.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Authenticate returns the active user matching username and password.
func (s *Service) Authenticate(username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	var user models.User

	err := s.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	return &user, nil
}

// User loads a user by id.
func (s *Service) User(id uint64) (*models.User, error) {
	var user models.User

	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// CreateUser creates an active staff user. superuser also grants superuser rights.
func (s *Service) CreateUser(username, password string, superuser bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if count > 0 {
		return nil, ErrUserNameExists
	}

	hashedPassword, err := models.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Active:      true,
		Username:    username,
		Password:    hashedPassword,
		IsStaff:     true,
		IsSuperuser: superuser,
	}

	if err = s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserNameExists
		}

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// SetPassword replaces the password of username.
func (s *Service) SetPassword(username, password string) error {
	if password == "" {
		return ErrEmptyCredentials
	}

	hashedPassword, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	result := s.db.Model(&models.User{}).Where("username = ?", strings.TrimSpace(username)).Update("password", hashedPassword)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
