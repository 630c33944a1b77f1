package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/henningsieh/growagram/internal/models"
	"github.com/henningsieh/growagram/internal/repository"
	"github.com/henningsieh/growagram/internal/service"
)

type uploadOutcomeResponse struct {
	FileName string     `json:"fileName"`
	Uploaded bool       `json:"uploaded"`
	ImageID  string     `json:"imageId,omitempty"`
	URL      string     `json:"url,omitempty"`
	PublicID string     `json:"publicId,omitempty"`
	Cause    string     `json:"cause,omitempty"`
	Reason   string     `json:"reason,omitempty"`
	At       *time.Time `json:"createdAt,omitempty"`
}

type uploadBatchResponse struct {
	Success  bool                    `json:"success"`
	Uploaded int                     `json:"uploaded"`
	Total    int                     `json:"total"`
	Outcomes []uploadOutcomeResponse `json:"outcomes"`
}

// UploadReportImages takes a multipart batch under the "images" field and
// attaches every successfully stored file to the grow report. Partial failure
// is a normal response, not an HTTP error.
func (h HandlerSet) UploadReportImages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	reportID := c.Param("reportId")
	report, err := h.reports.GetByID(c.Request.Context(), reportID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if report.AuthorID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not_report_author"})
		return
	}

	blobs, ok := h.readMultipartFiles(c, "images")
	if !ok {
		return
	}

	result, err := h.uploadService.UploadBatch(c.Request.Context(), blobs, models.ImageOwner{ReportID: &report.ID})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reports.TouchReport(c.Request.Context(), report.ID); err != nil {
		h.log.Warn().Err(err).Str("report_id", report.ID).Msg("report touch failed")
	}

	c.JSON(http.StatusOK, buildUploadResponse(result))
}

// UploadAvatar stores a single file under the "avatar" field as the caller's
// profile image.
func (h HandlerSet) UploadAvatar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	blobs, ok := h.readMultipartFiles(c, "avatar")
	if !ok {
		return
	}
	if len(blobs) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly_one_file_required"})
		return
	}

	result, err := h.uploadService.UploadBatch(c.Request.Context(), blobs, models.ImageOwner{UserID: &user.ID})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if result.Success {
		url := result.Outcomes[0].Image.CloudURL
		if err := h.users.UpdateAvatar(c.Request.Context(), user.ID, url); err != nil {
			h.log.Error().Err(err).Str("user_id", user.ID).Msg("avatar url update failed")
		}
	}

	c.JSON(http.StatusOK, buildUploadResponse(result))
}

func (h HandlerSet) ListReportImages(c *gin.Context) {
	images, err := h.images.ListByReport(c.Request.Context(), c.Param("reportId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]gin.H, 0, len(images))
	for _, img := range images {
		items = append(items, gin.H{
			"id":        img.ID,
			"url":       img.CloudURL,
			"publicId":  img.PublicID,
			"sizeBytes": img.SizeBytes,
			"createdAt": img.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// readMultipartFiles reads every file under the given form field into memory,
// enforcing the configured batch and per-file size limits.
func (h HandlerSet) readMultipartFiles(c *gin.Context, field string) ([]service.FileBlob, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart_form_required"})
		return nil, false
	}

	headers := form.File[field]
	if len(headers) > h.cfg.Upload.MaxFilesPerBatch {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too_many_files"})
		return nil, false
	}

	blobs := make([]service.FileBlob, 0, len(headers))
	for _, header := range headers {
		if header.Size > h.cfg.Upload.MaxFileSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file_too_large", "fileName": header.Filename})
			return nil, false
		}
		data, err := readFileHeader(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read_file_failed", "fileName": header.Filename})
			return nil, false
		}
		blobs = append(blobs, service.FileBlob{
			Name:        header.Filename,
			Data:        data,
			ContentType: header.Header.Get("Content-Type"),
		})
	}
	return blobs, true
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func buildUploadResponse(result service.UploadBatchResult) uploadBatchResponse {
	outcomes := make([]uploadOutcomeResponse, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		item := uploadOutcomeResponse{
			FileName: o.FileName,
			Uploaded: o.Uploaded,
		}
		if o.Uploaded {
			item.ImageID = o.Image.ID
			item.URL = o.Image.CloudURL
			item.PublicID = o.Image.PublicID
			at := o.Image.CreatedAt
			item.At = &at
		} else {
			item.Cause = string(o.Cause)
			item.Reason = o.Reason
		}
		outcomes = append(outcomes, item)
	}
	return uploadBatchResponse{
		Success:  result.Success,
		Uploaded: result.UploadedCount(),
		Total:    len(result.Outcomes),
		Outcomes: outcomes,
	}
}
