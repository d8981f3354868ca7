package query

import (
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/notification/domain"
)

// CountUnreadQuery represents the query to count unread in-app
// notifications
type CountUnreadQuery struct {
	UserID uint
}

// CountUnreadHandler handles count unread query
type CountUnreadHandler struct {
	repo domain.NotificationRepository
}

// NewCountUnreadHandler creates a new count unread handler
func NewCountUnreadHandler(repo domain.NotificationRepository) *CountUnreadHandler {
	return &CountUnreadHandler{repo: repo}
}

// Handle executes the count unread query
func (h *CountUnreadHandler) Handle(q CountUnreadQuery) (int64, error) {
	if q.UserID == 0 {
		return 0, fmt.Errorf("user_id is required")
	}
	return h.repo.CountUnread(q.UserID)
}
