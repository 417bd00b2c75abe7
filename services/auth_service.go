package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/affendiariffin/TO-Bot/repositories"
	"github.com/affendiariffin/TO-Bot/utils"
)

const minPasswordLength = 8

type RegisterUserInput struct {
	FirstName string
	LastName  string
	Nickname  string
	Email     string
	Password  string
	Role      models.UserRole
}

type AuthService interface {
	Register(ctx context.Context, input RegisterUserInput) (*models.User, error)
	// Login verifies credentials and returns the account. Token issuance
	// is the transport layer's business.
	Login(ctx context.Context, creds models.Credentials) (*models.User, error)
	GetUser(ctx context.Context, userID int) (*models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Register(ctx context.Context, input RegisterUserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", ErrValidationFailed)
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if strings.TrimSpace(input.Nickname) == "" {
		return nil, fmt.Errorf("%w: nickname is required", ErrValidationFailed)
	}
	role := input.Role
	if role == "" {
		role = models.RolePlayer
	}
	if role != models.RolePlayer && role != models.RoleOrganizer {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidationFailed, role)
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Nickname:     strings.TrimSpace(input.Nickname),
		Role:         role,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		case errors.Is(err, repositories.ErrUserNicknameConflict):
			return nil, ErrUserNicknameConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user by email: %w", err)
	}
	if !utils.CheckPasswordHash(creds.Password, user.PasswordHash) {
		return nil, ErrAuthInvalidCredentials
	}
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return user, nil
}
