package models

import "time"

// Comment belongs to a post; ResponseTo points at the parent comment when the
// comment is a reply. Replies nest one level deep in the rendered thread, the
// row itself does not enforce a depth limit.
type Comment struct {
	ID         string
	PostID     string
	AuthorID   string
	Content    string
	ResponseTo *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CommentThread is a top-level comment with its direct replies, oldest reply
// first.
type CommentThread struct {
	Comment
	Responses []Comment
}

type NotificationEvent string

const (
	NotificationCommentCreated  NotificationEvent = "COMMENT_CREATED"
	NotificationCommentAnswered NotificationEvent = "COMMENT_ANSWERED"
	NotificationReportLiked     NotificationEvent = "REPORT_LIKED"
	NotificationCommentLiked    NotificationEvent = "COMMENT_LIKED"
)

type Notification struct {
	ID          string
	RecipientID string
	Event       NotificationEvent
	CommentID   *string
	LikeID      *string
	ReadAt      *time.Time
	CreatedAt   time.Time
}
