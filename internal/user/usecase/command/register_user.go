package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/user/domain"
	"github.com/shelfwatch/shelfwatch/pkg/auth"
)

// RegisterUserCommand represents the command to register a new user
type RegisterUserCommand struct {
	Username string
	Email    string
	Password string
	Role     string // Optional, defaults to "user"
}

// RegisterUserHandler handles user registration command
type RegisterUserHandler struct {
	repo domain.UserRepository
}

// NewRegisterUserHandler creates a new register user handler
func NewRegisterUserHandler(repo domain.UserRepository) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

// Handle executes the register user command
func (h *RegisterUserHandler) Handle(cmd RegisterUserCommand) (*domain.User, error) {
	if cmd.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if cmd.Email == "" || !strings.Contains(cmd.Email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(cmd.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}

	if existing, _ := h.repo.FindByUsername(cmd.Username); existing != nil {
		return nil, fmt.Errorf("username already exists")
	}
	if existing, _ := h.repo.FindByEmail(cmd.Email); existing != nil {
		return nil, fmt.Errorf("email already exists")
	}

	hashedPassword, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := cmd.Role
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, fmt.Errorf("invalid role")
	}

	user := &domain.User{
		Username:           cmd.Username,
		Email:              cmd.Email,
		Password:           hashedPassword,
		Role:               role,
		IsActive:           true,
		EmailNotifications: true,
		InAppNotifications: true,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}

	if err := h.repo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}
