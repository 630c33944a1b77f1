package service

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/henningsieh/growagram/internal/ids"
	"github.com/henningsieh/growagram/internal/models"
	"github.com/henningsieh/growagram/internal/storage"
)

// ErrInvalidOwner is returned before any side effect when the owner reference
// does not name exactly one owning entity.
var ErrInvalidOwner = errors.New("image owner must reference exactly one of user or report")

// FileBlob is one in-memory file from a multipart submission.
type FileBlob struct {
	Name        string
	Data        []byte
	ContentType string
}

// FailureCause tells a failed outcome's origin apart: the object-store call
// itself, or the metadata insert after a successful remote upload. The latter
// leaves an orphaned remote object behind; that divergence is tolerated, not
// reconciled.
type FailureCause string

const (
	FailureProvider    FailureCause = "provider"
	FailurePersistence FailureCause = "persistence"
)

// UploadOutcome is the per-file result. Outcomes keep the input order of the
// batch.
type UploadOutcome struct {
	FileName string
	Uploaded bool
	Image    models.Image
	Cause    FailureCause
	Reason   string
}

type UploadBatchResult struct {
	Outcomes []UploadOutcome
	Success  bool
}

func (r UploadBatchResult) UploadedCount() int {
	count := 0
	for _, o := range r.Outcomes {
		if o.Uploaded {
			count++
		}
	}
	return count
}

type imageCreator interface {
	Create(ctx context.Context, image models.Image) error
}

type UploadService struct {
	images imageCreator
	store  storage.Uploader
	log    zerolog.Logger
}

func NewUploadService(images imageCreator, store storage.Uploader, log zerolog.Logger) *UploadService {
	return &UploadService{
		images: images,
		store:  store,
		log:    log,
	}
}

// UploadBatch uploads every file to the object store and inserts one image
// row per successful upload. Files are processed concurrently; outcomes are
// collected by input index, so their order always matches the input order. A
// batch with failed files is a normal result, not an error: the only error
// this method returns is an invalid owner reference, checked before any side
// effect.
func (s *UploadService) UploadBatch(ctx context.Context, files []FileBlob, owner models.ImageOwner) (UploadBatchResult, error) {
	if !owner.Valid() {
		return UploadBatchResult{}, ErrInvalidOwner
	}

	outcomes := make([]UploadOutcome, len(files))

	var wg sync.WaitGroup
	for i := range files {
		wg.Add(1)
		go func(idx int, file FileBlob) {
			defer wg.Done()
			outcomes[idx] = s.uploadOne(ctx, file, owner)
		}(i, files[i])
	}
	wg.Wait()

	success := true
	for _, o := range outcomes {
		if !o.Uploaded {
			success = false
			break
		}
	}

	return UploadBatchResult{Outcomes: outcomes, Success: success}, nil
}

func (s *UploadService) uploadOne(ctx context.Context, file FileBlob, owner models.ImageOwner) UploadOutcome {
	key := buildObjectKey(time.Now().UTC(), file.Name)

	info, err := s.store.Upload(ctx, key, file.Data, storage.UploadOptions{
		ContentType:  file.ContentType,
		AutoOptimize: true,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("file", file.Name).Msg("image upload failed")
		return UploadOutcome{
			FileName: file.Name,
			Cause:    FailureProvider,
			Reason:   err.Error(),
		}
	}

	image := models.Image{
		ID:        ids.New(),
		UserID:    owner.UserID,
		ReportID:  owner.ReportID,
		PublicID:  info.PublicID,
		CloudURL:  info.SecureURL,
		SizeBytes: info.Size,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.images.Create(ctx, image); err != nil {
		// The remote object exists but has no row; callers see the
		// persistence cause and the orphan stays.
		s.log.Error().Err(err).Str("file", file.Name).Str("key", key).Msg("image metadata insert failed after upload")
		return UploadOutcome{
			FileName: file.Name,
			Cause:    FailurePersistence,
			Reason:   err.Error(),
		}
	}

	return UploadOutcome{
		FileName: file.Name,
		Uploaded: true,
		Image:    image,
	}
}

// buildObjectKey derives the storage key from the upload instant and the
// file's base name with its extension stripped. Two files with the same base
// name uploaded within the same second collide; known weakness, kept as is.
func buildObjectKey(t time.Time, name string) string {
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	return path.Join(t.Format("2006/01/02"), t.Format("150405")+"-"+base)
}
