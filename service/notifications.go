package service

import (
	"context"

	"flowboard-api/storage"
)

// NotificationService mutates inbox read state. The unread count is a
// cached aggregate, so both mutations delete its key.
type NotificationService struct {
	notify NotificationStore
	cache  Invalidator
}

func NewNotificationService(notify NotificationStore, cache Invalidator) *NotificationService {
	return &NotificationService{notify: notify, cache: cache}
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := requireActor(userID); err != nil {
		return err
	}
	if err := s.notify.MarkRead(ctx, notificationID, userID); err != nil {
		return mapNotFound(err, "notification")
	}
	s.cache.Invalidate(ctx, storage.UnreadKey(userID))
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := requireActor(userID); err != nil {
		return err
	}
	if err := s.notify.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, storage.UnreadKey(userID))
	return nil
}
