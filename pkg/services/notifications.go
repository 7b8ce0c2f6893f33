package services

import (
	"context"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
)

const maxNotificationPage = 200

// NotificationService is the recipient's view of their inbox.
type NotificationService struct {
	notifications database.NotificationRepository
}

func NewNotificationService(notifications database.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, identity models.Identity, limit int) ([]models.Notification, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = database.DefaultNotificationLimit
	}
	if limit > maxNotificationPage {
		limit = maxNotificationPage
	}
	list, err := s.notifications.ListNotifications(ctx, identity.UserID, limit)
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	return list, nil
}

// MarkRead flags one of the actor's notifications as read. Marking twice is
// not an error; another user's notification is NotFound.
func (s *NotificationService) MarkRead(ctx context.Context, identity models.Identity, notificationID string) (*models.Notification, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	n, err := s.notifications.MarkNotificationRead(ctx, identity.UserID, notificationID)
	if err != nil {
		return nil, storeErr(err, "notification not found", "")
	}
	return n, nil
}
