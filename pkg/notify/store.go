package notify

import (
	"context"
	"time"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/database"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"

	"go.uber.org/zap"
)

const defaultStoreTimeout = 3 * time.Second

// StoreNotifier persists events as inbox notifications.
type StoreNotifier struct {
	repo    database.NotificationRepository
	log     *zap.Logger
	timeout time.Duration
}

func NewStoreNotifier(repo database.NotificationRepository, log *zap.Logger) *StoreNotifier {
	return &StoreNotifier{repo: repo, log: log.Named("notify.store"), timeout: defaultStoreTimeout}
}

// Notify writes the notification on a context detached from the caller's
// cancellation, bounded by the notifier's own timeout.
func (s *StoreNotifier) Notify(ctx context.Context, userID string, kind models.NotificationKind, payload interface{}) {
	body, err := encodePayload(payload)
	if err != nil {
		s.log.Error("failed to encode notification payload",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	n := &models.Notification{
		UserID:  userID,
		Kind:    kind,
		Payload: body,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		s.log.Error("failed to store notification",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}
