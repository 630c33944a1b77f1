package models

import "time"

// ImageOwner references the entity an uploaded image belongs to. Exactly one
// field is set: grow report gallery images carry ReportID, avatars carry
// UserID.
type ImageOwner struct {
	UserID   *string
	ReportID *string
}

func (o ImageOwner) Valid() bool {
	return (o.UserID != nil) != (o.ReportID != nil)
}

type Image struct {
	ID        string
	UserID    *string
	ReportID  *string
	PublicID  string
	CloudURL  string
	SizeBytes int64
	CreatedAt time.Time
}
