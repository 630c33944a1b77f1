package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/henningsieh/growagram/internal/ids"
	"github.com/henningsieh/growagram/internal/models"
	"github.com/henningsieh/growagram/internal/repository"
)

type likeStore interface {
	Create(ctx context.Context, like models.Like) error
	Delete(ctx context.Context, userID string, target models.LikeTarget, targetID string) error
	Get(ctx context.Context, userID string, target models.LikeTarget, targetID string) (models.Like, error)
	CountByTarget(ctx context.Context, target models.LikeTarget, targetID string) (int, error)
}

type reportGetter interface {
	GetByID(ctx context.Context, id string) (models.Report, error)
}

type commentGetter interface {
	GetByID(ctx context.Context, id string) (models.Comment, error)
}

type LikeService struct {
	likes         likeStore
	reports       reportGetter
	comments      commentGetter
	notifications notificationSink
	log           zerolog.Logger
}

func NewLikeService(likes likeStore, reports reportGetter, comments commentGetter, notifications notificationSink, log zerolog.Logger) *LikeService {
	return &LikeService{
		likes:         likes,
		reports:       reports,
		comments:      comments,
		notifications: notifications,
		log:           log,
	}
}

// Like records a like on a report or a comment and notifies the owner, unless
// the owner is liking their own content. Liking something already liked is a
// no-op.
func (s *LikeService) Like(ctx context.Context, userID string, target models.LikeTarget, targetID string) (models.Like, error) {
	ownerID, event, err := s.resolveTarget(ctx, target, targetID)
	if err != nil {
		return models.Like{}, err
	}

	existing, err := s.likes.Get(ctx, userID, target, targetID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrLikeNotFound) {
		return models.Like{}, err
	}

	like := models.Like{
		ID:       ids.New(),
		UserID:   userID,
		Target:   target,
		TargetID: targetID,
	}
	if err := s.likes.Create(ctx, like); err != nil {
		return models.Like{}, err
	}

	if ownerID != userID {
		notification := models.Notification{
			ID:          ids.New(),
			RecipientID: ownerID,
			Event:       event,
			LikeID:      &like.ID,
		}
		if target == models.LikeTargetComment {
			notification.CommentID = &targetID
		}
		if err := s.notifications.Notify(ctx, notification); err != nil {
			s.log.Warn().Err(err).Str("recipient", ownerID).Msg("like notification failed")
		}
	}

	return like, nil
}

func (s *LikeService) Unlike(ctx context.Context, userID string, target models.LikeTarget, targetID string) error {
	if err := s.likes.Delete(ctx, userID, target, targetID); err != nil {
		if errors.Is(err, repository.ErrLikeNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *LikeService) Count(ctx context.Context, target models.LikeTarget, targetID string) (int, error) {
	return s.likes.CountByTarget(ctx, target, targetID)
}

func (s *LikeService) resolveTarget(ctx context.Context, target models.LikeTarget, targetID string) (string, models.NotificationEvent, error) {
	switch target {
	case models.LikeTargetReport:
		report, err := s.reports.GetByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, repository.ErrReportNotFound) {
				return "", "", ErrNotFound
			}
			return "", "", err
		}
		return report.AuthorID, models.NotificationReportLiked, nil
	case models.LikeTargetComment:
		comment, err := s.comments.GetByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, repository.ErrCommentNotFound) {
				return "", "", ErrNotFound
			}
			return "", "", err
		}
		return comment.AuthorID, models.NotificationCommentLiked, nil
	default:
		return "", "", ErrNotFound
	}
}
