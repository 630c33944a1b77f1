package models

import "time"

// Report is a grow report: the journal a grower publishes, composed of dated
// posts.
type Report struct {
	ID          string
	AuthorID    string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Post is a dated update inside a grow report.
type Post struct {
	ID        string
	ReportID  string
	AuthorID  string
	Date      time.Time
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type LikeTarget string

const (
	LikeTargetReport  LikeTarget = "report"
	LikeTargetComment LikeTarget = "comment"
)

type Like struct {
	ID        string
	UserID    string
	Target    LikeTarget
	TargetID  string
	CreatedAt time.Time
}
