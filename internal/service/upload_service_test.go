package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henningsieh/growagram/internal/models"
	"github.com/henningsieh/growagram/internal/storage"
)

type fakeUploader struct {
	mu       sync.Mutex
	calls    int
	failFor  map[string]error         // file base name -> injected upload error
	delayFor map[string]time.Duration // file base name -> artificial latency
}

func (f *fakeUploader) Upload(ctx context.Context, key string, data []byte, opts storage.UploadOptions) (storage.UploadInfo, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	for name, d := range f.delayFor {
		if strings.Contains(key, name) {
			time.Sleep(d)
		}
	}
	for name, err := range f.failFor {
		if strings.Contains(key, name) {
			return storage.UploadInfo{}, err
		}
	}
	return storage.UploadInfo{
		PublicID:  key,
		SecureURL: "https://img.example.com/growagram-images/" + key,
		Size:      int64(len(data)),
	}, nil
}

type fakeImageCreator struct {
	mu      sync.Mutex
	created []models.Image
	failFor map[string]error // public id substring -> injected insert error
}

func (f *fakeImageCreator) Create(ctx context.Context, image models.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, err := range f.failFor {
		if strings.Contains(image.PublicID, name) {
			return err
		}
	}
	f.created = append(f.created, image)
	return nil
}

func (f *fakeImageCreator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func newUploadFixture() (*UploadService, *fakeUploader, *fakeImageCreator) {
	uploader := &fakeUploader{failFor: map[string]error{}, delayFor: map[string]time.Duration{}}
	images := &fakeImageCreator{failFor: map[string]error{}}
	svc := NewUploadService(images, uploader, zerolog.Nop())
	return svc, uploader, images
}

func reportOwner() models.ImageOwner {
	reportID := "report-1"
	return models.ImageOwner{ReportID: &reportID}
}

func makeBlobs(n int) []FileBlob {
	blobs := make([]FileBlob, n)
	for i := range blobs {
		blobs[i] = FileBlob{
			Name:        fmt.Sprintf("bud-%03d.jpg", i),
			Data:        []byte("jpeg bytes"),
			ContentType: "image/jpeg",
		}
	}
	return blobs
}

func TestUploadBatch_EmptyInput(t *testing.T) {
	svc, uploader, images := newUploadFixture()

	result, err := svc.UploadBatch(context.Background(), nil, reportOwner())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 0, uploader.calls)
	assert.Equal(t, 0, images.count())
}

func TestUploadBatch_InvalidOwner(t *testing.T) {
	svc, uploader, _ := newUploadFixture()

	_, err := svc.UploadBatch(context.Background(), makeBlobs(2), models.ImageOwner{})
	require.ErrorIs(t, err, ErrInvalidOwner)
	assert.Equal(t, 0, uploader.calls, "no side effect before the owner check")

	userID := "user-1"
	reportID := "report-1"
	_, err = svc.UploadBatch(context.Background(), makeBlobs(1), models.ImageOwner{UserID: &userID, ReportID: &reportID})
	require.ErrorIs(t, err, ErrInvalidOwner)
}

func TestUploadBatch_OrderMatchesInput(t *testing.T) {
	svc, uploader, _ := newUploadFixture()

	const n = 50
	blobs := makeBlobs(n)
	// later files finish first
	for i := 0; i < n; i++ {
		uploader.delayFor[fmt.Sprintf("bud-%03d", i)] = time.Duration(n-i) * time.Millisecond
	}
	uploader.failFor["bud-007"] = errors.New("connection reset")

	result, err := svc.UploadBatch(context.Background(), blobs, reportOwner())
	require.NoError(t, err)
	require.Len(t, result.Outcomes, n)
	for i, outcome := range result.Outcomes {
		assert.Equal(t, blobs[i].Name, outcome.FileName, "outcome %d out of order", i)
	}
	assert.False(t, result.Success)
	assert.Equal(t, n-1, result.UploadedCount())
}

func TestUploadBatch_PartialFailureAggregation(t *testing.T) {
	svc, uploader, images := newUploadFixture()

	blobs := makeBlobs(5)
	uploader.failFor["bud-001"] = errors.New("http 502")
	uploader.failFor["bud-003"] = errors.New("timeout")

	result, err := svc.UploadBatch(context.Background(), blobs, reportOwner())
	require.NoError(t, err)
	assert.False(t, result.Success)

	for _, i := range []int{0, 2, 4} {
		assert.True(t, result.Outcomes[i].Uploaded, "index %d should be uploaded", i)
		assert.NotEmpty(t, result.Outcomes[i].Image.ID)
	}
	for _, i := range []int{1, 3} {
		assert.False(t, result.Outcomes[i].Uploaded, "index %d should have failed", i)
		assert.Equal(t, FailureProvider, result.Outcomes[i].Cause)
		assert.NotEmpty(t, result.Outcomes[i].Reason)
	}

	// no row without a successful upload
	assert.Equal(t, 3, images.count())
}

func TestUploadBatch_AllFailedIsStillAResult(t *testing.T) {
	svc, uploader, images := newUploadFixture()

	blobs := makeBlobs(3)
	for i := 0; i < 3; i++ {
		uploader.failFor[fmt.Sprintf("bud-%03d", i)] = errors.New("provider down")
	}

	result, err := svc.UploadBatch(context.Background(), blobs, reportOwner())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.UploadedCount())
	assert.Equal(t, 0, images.count())
}

func TestUploadBatch_InsertFailureAfterUpload(t *testing.T) {
	svc, _, images := newUploadFixture()

	blobs := makeBlobs(2)
	images.failFor["bud-000"] = errors.New("unique constraint violated")

	result, err := svc.UploadBatch(context.Background(), blobs, reportOwner())
	require.NoError(t, err)
	assert.False(t, result.Success)

	failed := result.Outcomes[0]
	assert.False(t, failed.Uploaded)
	assert.Equal(t, FailurePersistence, failed.Cause, "upload succeeded, insert failed")

	ok := result.Outcomes[1]
	assert.True(t, ok.Uploaded)
	assert.Equal(t, 1, images.count())
}

func TestUploadBatch_OwnerReferencePersisted(t *testing.T) {
	svc, _, images := newUploadFixture()

	_, err := svc.UploadBatch(context.Background(), makeBlobs(1), reportOwner())
	require.NoError(t, err)
	require.Equal(t, 1, images.count())
	img := images.created[0]
	require.NotNil(t, img.ReportID)
	assert.Equal(t, "report-1", *img.ReportID)
	assert.Nil(t, img.UserID)
}

func TestBuildObjectKey(t *testing.T) {
	at := time.Date(2025, 3, 7, 9, 4, 2, 0, time.UTC)

	key := buildObjectKey(at, "My Plant.final.JPG")
	assert.Equal(t, "2025/03/07/090402-My Plant.final", key)

	// same base name within the same second collides; kept as is
	assert.Equal(t, buildObjectKey(at, "a.jpg"), buildObjectKey(at, "a.png"))
}
