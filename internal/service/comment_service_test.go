package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henningsieh/growagram/internal/models"
	"github.com/henningsieh/growagram/internal/repository"
)

type fakeCommentStore struct {
	comments map[string]models.Comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]models.Comment)}
}

func (f *fakeCommentStore) Create(ctx context.Context, comment models.Comment) error {
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeCommentStore) GetByID(ctx context.Context, id string) (models.Comment, error) {
	comment, ok := f.comments[id]
	if !ok {
		return models.Comment{}, repository.ErrCommentNotFound
	}
	return comment, nil
}

func (f *fakeCommentStore) UpdateContent(ctx context.Context, id string, content string) (models.Comment, error) {
	comment, ok := f.comments[id]
	if !ok {
		return models.Comment{}, repository.ErrCommentNotFound
	}
	comment.Content = content
	comment.UpdatedAt = time.Now().UTC()
	f.comments[id] = comment
	return comment, nil
}

func (f *fakeCommentStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.comments[id]; !ok {
		return repository.ErrCommentNotFound
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeCommentStore) ListTopLevelByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var roots []models.Comment
	for _, c := range f.comments {
		if c.PostID == postID && c.ResponseTo == nil {
			roots = append(roots, c)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})
	return roots, nil
}

func (f *fakeCommentStore) ListResponses(ctx context.Context, parentIDs []string) (map[string][]models.Comment, error) {
	result := make(map[string][]models.Comment)
	parents := make(map[string]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = struct{}{}
	}
	for _, c := range f.comments {
		if c.ResponseTo == nil {
			continue
		}
		if _, ok := parents[*c.ResponseTo]; ok {
			result[*c.ResponseTo] = append(result[*c.ResponseTo], c)
		}
	}
	for id := range result {
		list := result[id]
		sort.Slice(list, func(i, j int) bool {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		})
		result[id] = list
	}
	return result, nil
}

type fakePosts struct {
	posts map[string]models.Post
}

func (f *fakePosts) GetPostByID(ctx context.Context, id string) (models.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return models.Post{}, repository.ErrPostNotFound
	}
	return post, nil
}

// failingPosts simulates a post lookup that fails for reasons other than a
// missing row.
type failingPosts struct {
	err error
}

func (f *failingPosts) GetPostByID(ctx context.Context, id string) (models.Post, error) {
	return models.Post{}, f.err
}

type recordingSink struct {
	notifications []models.Notification
	err           error
}

func (r *recordingSink) Notify(ctx context.Context, notification models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.notifications = append(r.notifications, notification)
	return nil
}

func (r *recordingSink) byEvent(event models.NotificationEvent) []models.Notification {
	var out []models.Notification
	for _, n := range r.notifications {
		if n.Event == event {
			out = append(out, n)
		}
	}
	return out
}

func newCommentFixture(postAuthor string) (*CommentService, *fakeCommentStore, *recordingSink) {
	store := newFakeCommentStore()
	posts := &fakePosts{posts: map[string]models.Post{
		"post-1": {ID: "post-1", ReportID: "report-1", AuthorID: postAuthor},
		"post-2": {ID: "post-2", ReportID: "report-1", AuthorID: postAuthor},
	}}
	sink := &recordingSink{}
	svc := NewCommentService(store, posts, sink, zerolog.Nop())
	return svc, store, sink
}

func TestCreateComment_Validation(t *testing.T) {
	svc, _, sink := newCommentFixture("author-a")
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "   "})
	require.ErrorIs(t, err, ErrContentLength)

	_, err = svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: strings.Repeat("x", 1001)})
	require.ErrorIs(t, err, ErrContentLength)

	_, err = svc.Create(ctx, CreateCommentInput{PostID: "missing", AuthorID: "user-b", Content: "hello"})
	require.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, sink.notifications, "no notification before a successful insert")
}

func TestCreateComment_ReturnedRowCarriesTimestamps(t *testing.T) {
	svc, store, _ := newCommentFixture("author-a")

	comment, err := svc.Create(context.Background(), CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "fresh"})
	require.NoError(t, err)

	assert.False(t, comment.CreatedAt.IsZero(), "returned comment must carry its creation time")
	assert.False(t, comment.UpdatedAt.IsZero())
	assert.Equal(t, comment.CreatedAt, comment.UpdatedAt)

	stored, err := store.GetByID(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Equal(t, comment.CreatedAt, stored.CreatedAt)
}

func TestCreateComment_MultibyteContentCountsRunes(t *testing.T) {
	svc, _, _ := newCommentFixture("author-a")
	ctx := context.Background()

	// 600 two-byte runes: over 1000 bytes, well under 1000 characters
	comment, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: strings.Repeat("ü", 600)})
	require.NoError(t, err)
	assert.Equal(t, 600, len([]rune(comment.Content)))

	_, err = svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: strings.Repeat("ü", 1001)})
	require.ErrorIs(t, err, ErrContentLength)
}

func TestCreateComment_LookupOutagePropagates(t *testing.T) {
	store := newFakeCommentStore()
	dbDown := errors.New("connection refused")
	svc := NewCommentService(store, &failingPosts{err: dbDown}, &recordingSink{}, zerolog.Nop())

	_, err := svc.Create(context.Background(), CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "hello"})
	require.ErrorIs(t, err, dbDown)
	require.NotErrorIs(t, err, ErrNotFound, "an outage is not a missing post")

	_, err = svc.ListForPost(context.Background(), "post-1")
	require.ErrorIs(t, err, dbDown)
}

func TestCreateComment_ReplyMustMatchPost(t *testing.T) {
	svc, _, _ := newCommentFixture("author-a")
	ctx := context.Background()

	parent, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "first"})
	require.NoError(t, err)

	missing := "nope"
	_, err = svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-c", Content: "reply", ResponseTo: &missing})
	require.ErrorIs(t, err, ErrNotFound)

	// parent exists but belongs to another post
	_, err = svc.Create(ctx, CreateCommentInput{PostID: "post-2", AuthorID: "user-c", Content: "reply", ResponseTo: &parent.ID})
	require.ErrorIs(t, err, ErrNotFound)
}

// The full scenario from the product: post by A, comment by B, reply by A,
// reply by B.
func TestCreateComment_NotificationFanOut(t *testing.T) {
	svc, _, sink := newCommentFixture("user-a")
	ctx := context.Background()

	// B comments on A's post: exactly one COMMENT_CREATED for A.
	c1, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "looking healthy"})
	require.NoError(t, err)
	require.Len(t, sink.notifications, 1)
	assert.Equal(t, models.NotificationCommentCreated, sink.notifications[0].Event)
	assert.Equal(t, "user-a", sink.notifications[0].RecipientID)
	require.NotNil(t, sink.notifications[0].CommentID)
	assert.Equal(t, c1.ID, *sink.notifications[0].CommentID)

	// A (the post author) replies to C1: no COMMENT_CREATED, one
	// COMMENT_ANSWERED to B.
	sink.notifications = nil
	c2, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-a", Content: "thanks!", ResponseTo: &c1.ID})
	require.NoError(t, err)
	require.Len(t, sink.notifications, 1)
	assert.Equal(t, models.NotificationCommentAnswered, sink.notifications[0].Event)
	assert.Equal(t, "user-b", sink.notifications[0].RecipientID)

	// B replies to C2: COMMENT_ANSWERED to A (C2's author) plus
	// COMMENT_CREATED to A (post author) — two rows, both recipient A.
	sink.notifications = nil
	_, err = svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "welcome", ResponseTo: &c2.ID})
	require.NoError(t, err)
	require.Len(t, sink.notifications, 2)
	answered := sink.byEvent(models.NotificationCommentAnswered)
	created := sink.byEvent(models.NotificationCommentCreated)
	require.Len(t, answered, 1)
	require.Len(t, created, 1)
	assert.Equal(t, "user-a", answered[0].RecipientID)
	assert.Equal(t, "user-a", created[0].RecipientID)
}

func TestCreateComment_NoSelfReplyNotification(t *testing.T) {
	svc, _, sink := newCommentFixture("user-a")
	ctx := context.Background()

	c1, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "day 1 update"})
	require.NoError(t, err)

	// B replies to their own comment: no COMMENT_ANSWERED to themselves,
	// only the COMMENT_CREATED for the post author.
	sink.notifications = nil
	_, err = svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "addendum", ResponseTo: &c1.ID})
	require.NoError(t, err)
	require.Len(t, sink.notifications, 1)
	assert.Equal(t, models.NotificationCommentCreated, sink.notifications[0].Event)
	assert.Equal(t, "user-a", sink.notifications[0].RecipientID)
}

func TestCreateComment_NotificationFailureIsSwallowed(t *testing.T) {
	svc, store, sink := newCommentFixture("user-a")
	sink.err = errors.New("notifications table unavailable")

	comment, err := svc.Create(context.Background(), CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "still works"})
	require.NoError(t, err, "comment creation must not fail on notification errors")

	stored, err := store.GetByID(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "still works", stored.Content)
}

func TestEditComment_AuthorGate(t *testing.T) {
	svc, store, _ := newCommentFixture("user-a")
	ctx := context.Background()

	comment, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "original"})
	require.NoError(t, err)

	_, err = svc.Edit(ctx, comment.ID, "user-x", "hijacked")
	require.ErrorIs(t, err, ErrUnauthorized)
	stored, _ := store.GetByID(ctx, comment.ID)
	assert.Equal(t, "original", stored.Content, "content unchanged after denied edit")

	updated, err := svc.Edit(ctx, comment.ID, "user-b", "fixed typo")
	require.NoError(t, err)
	assert.Equal(t, "fixed typo", updated.Content)
	assert.Equal(t, comment.AuthorID, updated.AuthorID)
	assert.Equal(t, comment.PostID, updated.PostID)

	_, err = svc.Edit(ctx, "missing", "user-b", "whatever")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteComment_AuthorGate(t *testing.T) {
	svc, store, _ := newCommentFixture("user-a")
	ctx := context.Background()

	comment, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "to be removed"})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, comment.ID, "user-x")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = store.GetByID(ctx, comment.ID)
	require.NoError(t, err, "row still present after denied delete")

	deleted, err := svc.Delete(ctx, comment.ID, "user-b")
	require.NoError(t, err)
	assert.Equal(t, comment.ID, deleted.ID)
	assert.Equal(t, "to be removed", deleted.Content)

	_, err = store.GetByID(ctx, comment.ID)
	require.Error(t, err)
}

func TestRemoveComment_IgnoresAuthor(t *testing.T) {
	svc, store, _ := newCommentFixture("user-a")
	ctx := context.Background()

	comment, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "spam"})
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, comment.ID, removed.ID)
	_, err = store.GetByID(ctx, comment.ID)
	require.Error(t, err)

	_, err = svc.Remove(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteComment_NoCascadeToReplies(t *testing.T) {
	svc, store, _ := newCommentFixture("user-a")
	ctx := context.Background()

	parent, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "parent"})
	require.NoError(t, err)
	reply, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-c", Content: "child", ResponseTo: &parent.ID})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, parent.ID, "user-b")
	require.NoError(t, err)

	stored, err := store.GetByID(ctx, reply.ID)
	require.NoError(t, err, "reply survives its parent")
	require.NotNil(t, stored.ResponseTo)
	assert.Equal(t, parent.ID, *stored.ResponseTo)

	// the orphaned reply is neither a root nor anyone's response
	threads, err := svc.ListForPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestListForPost_Shape(t *testing.T) {
	svc, _, _ := newCommentFixture("user-a")
	ctx := context.Background()

	c1, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-b", Content: "week 1 looks great"})
	require.NoError(t, err)
	r1, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-a", Content: "thanks", ResponseTo: &c1.ID})
	require.NoError(t, err)
	r2, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-c", Content: "+1", ResponseTo: &c1.ID})
	require.NoError(t, err)
	c2, err := svc.Create(ctx, CreateCommentInput{PostID: "post-1", AuthorID: "user-d", Content: "what nutrients?"})
	require.NoError(t, err)

	threads, err := svc.ListForPost(ctx, "post-1")
	require.NoError(t, err)
	require.Len(t, threads, 2)

	// newest top-level comment first
	assert.Equal(t, c2.ID, threads[0].ID)
	assert.Equal(t, c1.ID, threads[1].ID)

	for _, thread := range threads {
		assert.Nil(t, thread.ResponseTo, "no reply at top level")
	}

	// replies oldest-first under their parent
	require.Len(t, threads[1].Responses, 2)
	assert.Equal(t, r1.ID, threads[1].Responses[0].ID)
	assert.Equal(t, r2.ID, threads[1].Responses[1].ID)

	_, err = svc.ListForPost(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
