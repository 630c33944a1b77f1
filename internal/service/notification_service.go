package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/henningsieh/growagram/internal/models"
)

const unreadCountTTL = 5 * time.Minute

type notificationStore interface {
	Create(ctx context.Context, notification models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, id string, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationService persists notification rows and keeps a short-lived
// unread counter in redis. Cache failures never surface; the database is the
// source of truth.
type NotificationService struct {
	store notificationStore
	cache *redis.Client
	log   zerolog.Logger
}

func NewNotificationService(store notificationStore, cache *redis.Client, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		store: store,
		cache: cache,
		log:   log,
	}
}

func (s *NotificationService) Notify(ctx context.Context, notification models.Notification) error {
	if err := s.store.Create(ctx, notification); err != nil {
		return err
	}
	s.invalidateUnread(ctx, notification.RecipientID)
	return nil
}

func (s *NotificationService) List(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, error) {
	return s.store.ListByRecipient(ctx, recipientID, limit, offset)
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	key := unreadKey(recipientID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			if count, err := strconv.Atoi(cached); err == nil {
				return count, nil
			}
		}
	}

	count, err := s.store.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, unreadCountTTL).Err(); err != nil {
			s.log.Debug().Err(err).Msg("unread counter cache set failed")
		}
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id string, recipientID string) error {
	if err := s.store.MarkRead(ctx, id, recipientID); err != nil {
		return err
	}
	s.invalidateUnread(ctx, recipientID)
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) error {
	if err := s.store.MarkAllRead(ctx, recipientID); err != nil {
		return err
	}
	s.invalidateUnread(ctx, recipientID)
	return nil
}

// PruneRead deletes read notifications older than the retention age.
func (s *NotificationService) PruneRead(ctx context.Context, age time.Duration) (int64, error) {
	return s.store.DeleteReadBefore(ctx, time.Now().Add(-age))
}

func (s *NotificationService) invalidateUnread(ctx context.Context, recipientID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, unreadKey(recipientID)).Err(); err != nil {
		s.log.Debug().Err(err).Str("recipient", recipientID).Msg("unread counter invalidation failed")
	}
}

func unreadKey(recipientID string) string {
	return fmt.Sprintf("notif:unread:%s", recipientID)
}
