package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henningsieh/growagram/internal/models"
)

type fakeNotificationStore struct {
	rows       map[string]models.Notification
	pruneCalls []time.Time
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{rows: make(map[string]models.Notification)}
}

func (f *fakeNotificationStore) Create(ctx context.Context, notification models.Notification) error {
	f.rows[notification.ID] = notification
	return nil
}

func (f *fakeNotificationStore) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.rows {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) CountUnread(ctx context.Context, recipientID string) (int, error) {
	count := 0
	for _, n := range f.rows {
		if n.RecipientID == recipientID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, id string, recipientID string) error {
	n, ok := f.rows[id]
	if !ok || n.RecipientID != recipientID {
		return ErrNotFound
	}
	now := time.Now()
	n.ReadAt = &now
	f.rows[id] = n
	return nil
}

func (f *fakeNotificationStore) MarkAllRead(ctx context.Context, recipientID string) error {
	now := time.Now()
	for id, n := range f.rows {
		if n.RecipientID == recipientID && n.ReadAt == nil {
			n.ReadAt = &now
			f.rows[id] = n
		}
	}
	return nil
}

func (f *fakeNotificationStore) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.pruneCalls = append(f.pruneCalls, cutoff)
	return 0, nil
}

func TestNotificationService_UnreadCount(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, models.Notification{ID: "n1", RecipientID: "user-a", Event: models.NotificationCommentCreated}))
	require.NoError(t, svc.Notify(ctx, models.Notification{ID: "n2", RecipientID: "user-a", Event: models.NotificationCommentAnswered}))
	require.NoError(t, svc.Notify(ctx, models.Notification{ID: "n3", RecipientID: "user-b", Event: models.NotificationReportLiked}))

	count, err := svc.UnreadCount(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, svc.MarkRead(ctx, "n1", "user-a"))
	count, err = svc.UnreadCount(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// marking someone else's notification read is refused
	require.Error(t, svc.MarkRead(ctx, "n3", "user-a"))

	require.NoError(t, svc.MarkAllRead(ctx, "user-a"))
	count, err = svc.UnreadCount(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = svc.UnreadCount(ctx, "user-b")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotificationService_PruneCutoff(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, zerolog.Nop())

	before := time.Now()
	_, err := svc.PruneRead(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)

	require.Len(t, store.pruneCalls, 1)
	cutoff := store.pruneCalls[0]
	assert.WithinDuration(t, before.Add(-30*24*time.Hour), cutoff, time.Minute)
}
