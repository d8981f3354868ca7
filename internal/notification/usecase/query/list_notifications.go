package query

import (
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/notification/domain"
)

// ListNotificationsQuery represents the query to list a user's
// notifications, newest first
type ListNotificationsQuery struct {
	UserID uint
	Limit  int
}

// ListNotificationsHandler handles list notifications query
type ListNotificationsHandler struct {
	repo domain.NotificationRepository
}

// NewListNotificationsHandler creates a new list notifications handler
func NewListNotificationsHandler(repo domain.NotificationRepository) *ListNotificationsHandler {
	return &ListNotificationsHandler{repo: repo}
}

// Handle executes the list notifications query
func (h *ListNotificationsHandler) Handle(q ListNotificationsQuery) ([]domain.Notification, error) {
	if q.UserID == 0 {
		return nil, fmt.Errorf("user_id is required")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}

	notifications, err := h.repo.FindByUser(q.UserID, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}
