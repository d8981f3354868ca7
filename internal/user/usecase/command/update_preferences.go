package command

import (
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/user/domain"
)

// UpdatePreferencesCommand toggles a user's notification channel opt-ins.
// Nil pointers leave the corresponding flag unchanged.
type UpdatePreferencesCommand struct {
	UserID             uint
	EmailNotifications *bool
	SMSNotifications   *bool
	InAppNotifications *bool
	PhoneNumber        *string
}

// UpdatePreferencesHandler handles update preferences command
type UpdatePreferencesHandler struct {
	repo domain.UserRepository
}

// NewUpdatePreferencesHandler creates a new update preferences handler
func NewUpdatePreferencesHandler(repo domain.UserRepository) *UpdatePreferencesHandler {
	return &UpdatePreferencesHandler{repo: repo}
}

// Handle executes the update preferences command
func (h *UpdatePreferencesHandler) Handle(cmd UpdatePreferencesCommand) (*domain.User, error) {
	if cmd.UserID == 0 {
		return nil, fmt.Errorf("user_id is required")
	}

	user, err := h.repo.FindByID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if cmd.EmailNotifications != nil {
		user.EmailNotifications = *cmd.EmailNotifications
	}
	if cmd.SMSNotifications != nil {
		user.SMSNotifications = *cmd.SMSNotifications
	}
	if cmd.InAppNotifications != nil {
		user.InAppNotifications = *cmd.InAppNotifications
	}
	if cmd.PhoneNumber != nil {
		user.PhoneNumber = *cmd.PhoneNumber
	}

	// SMS alerts need somewhere to go
	if user.SMSNotifications && user.PhoneNumber == "" {
		return nil, fmt.Errorf("phone number is required for sms notifications")
	}

	if err := h.repo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
