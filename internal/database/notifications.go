package database

import (
	"context"

	"github.com/google/uuid"

	"taskflex/internal/models"
	"taskflex/internal/policy"
)

// CreateNotification persists a single draft. It is called once per draft
// by the notify dispatcher.
func (s *service) CreateNotification(ctx context.Context, d policy.Draft) error {
	return translate("create notification", s.with(ctx).Notifications.Create(models.NotificationFromDraft(d)))
}

// ListNotifications returns the caller's inbox and its unread count.
func (s *service) ListNotifications(ctx context.Context, userID uuid.UUID, f models.NotificationFilter) ([]models.Notification, int64, error) {
	db := s.with(ctx)
	items, err := db.Notifications.ForUser(userID, f)
	if err != nil {
		return nil, 0, translate("list notifications", err)
	}
	unread, err := db.Notifications.UnreadCount(userID)
	if err != nil {
		return nil, 0, translate("count unread notifications", err)
	}
	return items, unread, nil
}

func (s *service) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error {
	return translate("mark notification read", s.with(ctx).Notifications.MarkRead(userID, id))
}

func (s *service) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.with(ctx).Notifications.MarkAllRead(userID)
	return n, translate("mark all notifications read", err)
}

func (s *service) DeleteNotification(ctx context.Context, userID, id uuid.UUID) error {
	return translate("delete notification", s.with(ctx).Notifications.Delete(userID, id))
}
