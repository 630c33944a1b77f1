package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/henningsieh/growagram/internal/ids"
	"github.com/henningsieh/growagram/internal/models"
	"github.com/henningsieh/growagram/internal/repository"
)

const maxCommentLength = 1000

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("not the author")
	ErrContentLength = errors.New("comment content must be between 1 and 1000 characters")
)

type commentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	GetByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id string, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
	ListTopLevelByPost(ctx context.Context, postID string) ([]models.Comment, error)
	ListResponses(ctx context.Context, parentIDs []string) (map[string][]models.Comment, error)
}

type postGetter interface {
	GetPostByID(ctx context.Context, id string) (models.Post, error)
}

type notificationSink interface {
	Notify(ctx context.Context, notification models.Notification) error
}

type CommentService struct {
	comments      commentStore
	posts         postGetter
	notifications notificationSink
	log           zerolog.Logger
}

func NewCommentService(comments commentStore, posts postGetter, notifications notificationSink, log zerolog.Logger) *CommentService {
	return &CommentService{
		comments:      comments,
		posts:         posts,
		notifications: notifications,
		log:           log,
	}
}

type CreateCommentInput struct {
	PostID     string
	AuthorID   string
	Content    string
	ResponseTo *string
}

// Create inserts a comment and fans out up to two notifications: one to the
// parent comment's author when the comment is a reply, one to the post's
// author when someone else comments. Both rules are evaluated independently
// after the insert succeeded; a failed notification insert is logged and
// swallowed, the created comment stands.
func (s *CommentService) Create(ctx context.Context, input CreateCommentInput) (models.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if n := utf8.RuneCountInString(content); n < 1 || n > maxCommentLength {
		return models.Comment{}, ErrContentLength
	}

	post, err := s.posts.GetPostByID(ctx, input.PostID)
	if err != nil {
		return models.Comment{}, translateLookupErr(err)
	}

	var parent *models.Comment
	if input.ResponseTo != nil {
		p, err := s.comments.GetByID(ctx, *input.ResponseTo)
		if err != nil {
			return models.Comment{}, translateLookupErr(err)
		}
		if p.PostID != post.ID {
			// replies must point at a comment on the same post
			return models.Comment{}, ErrNotFound
		}
		parent = &p
	}

	now := time.Now().UTC()
	comment := models.Comment{
		ID:         ids.New(),
		PostID:     post.ID,
		AuthorID:   input.AuthorID,
		Content:    content,
		ResponseTo: input.ResponseTo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return models.Comment{}, err
	}

	if parent != nil && parent.AuthorID != comment.AuthorID {
		s.notify(ctx, models.Notification{
			ID:          ids.New(),
			RecipientID: parent.AuthorID,
			Event:       models.NotificationCommentAnswered,
			CommentID:   &comment.ID,
		})
	}
	if post.AuthorID != comment.AuthorID {
		s.notify(ctx, models.Notification{
			ID:          ids.New(),
			RecipientID: post.AuthorID,
			Event:       models.NotificationCommentCreated,
			CommentID:   &comment.ID,
		})
	}

	return comment, nil
}

// Edit changes the content of the caller's own comment. Post, author, and
// reply references stay as they are.
func (s *CommentService) Edit(ctx context.Context, id string, authorID string, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n < 1 || n > maxCommentLength {
		return models.Comment{}, ErrContentLength
	}

	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return models.Comment{}, translateLookupErr(err)
	}
	if comment.AuthorID != authorID {
		return models.Comment{}, ErrUnauthorized
	}

	return s.comments.UpdateContent(ctx, id, content)
}

// Delete removes the caller's own comment and returns the deleted row.
// Replies are not cascaded; a reply to a deleted comment keeps its dangling
// reference and stops appearing in listings.
func (s *CommentService) Delete(ctx context.Context, id string, authorID string) (models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return models.Comment{}, translateLookupErr(err)
	}
	if comment.AuthorID != authorID {
		return models.Comment{}, ErrUnauthorized
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// Remove deletes a comment regardless of who wrote it. Moderation path; the
// caller's role is checked at the route.
func (s *CommentService) Remove(ctx context.Context, id string) (models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return models.Comment{}, translateLookupErr(err)
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// ListForPost returns the post's top-level comments newest-first, each with
// its direct replies oldest-first. Reply depth is flattened to one level.
func (s *CommentService) ListForPost(ctx context.Context, postID string) ([]models.CommentThread, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, translateLookupErr(err)
	}

	roots, err := s.comments.ListTopLevelByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	parentIDs := make([]string, len(roots))
	for i, c := range roots {
		parentIDs[i] = c.ID
	}
	responses, err := s.comments.ListResponses(ctx, parentIDs)
	if err != nil {
		return nil, err
	}

	threads := make([]models.CommentThread, len(roots))
	for i, c := range roots {
		threads[i] = models.CommentThread{
			Comment:   c,
			Responses: responses[c.ID],
		}
	}
	return threads, nil
}

// translateLookupErr maps the repository not-found sentinels to ErrNotFound
// and lets everything else (a failing database, a timeout) pass through.
func translateLookupErr(err error) error {
	if errors.Is(err, repository.ErrPostNotFound) || errors.Is(err, repository.ErrCommentNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *CommentService) notify(ctx context.Context, notification models.Notification) {
	if err := s.notifications.Notify(ctx, notification); err != nil {
		s.log.Warn().Err(err).
			Str("recipient", notification.RecipientID).
			Str("event", string(notification.Event)).
			Msg("notification insert failed")
	}
}
