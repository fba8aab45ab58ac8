package social

import (
	"context"
	"time"

	"github.com/scholarfeed/pkg/models"
)

// NotificationService reads and maintains a user's notification list.
type NotificationService struct {
	store Store
}

// NewNotificationService creates a notification service.
func NewNotificationService(st Store) *NotificationService {
	return &NotificationService{store: st}
}

// List returns the user's notifications newest first plus the unread count.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]models.Notification, int, error) {
	return s.store.ListNotifications(ctx, userID, limit)
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.store.MarkNotificationRead(ctx, id, userID)
}

// MarkAllRead marks every notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

// Delete removes one notification.
func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	return s.store.DeleteNotification(ctx, id, userID)
}

// DeleteAll clears the user's notification list.
func (s *NotificationService) DeleteAll(ctx context.Context, userID string) error {
	return s.store.DeleteAllNotifications(ctx, userID)
}

// CleanupRead removes read notifications older than maxAge. The periodic
// job calls this.
func (s *NotificationService) CleanupRead(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.store.DeleteReadNotificationsBefore(ctx, time.Now().Add(-maxAge))
}
