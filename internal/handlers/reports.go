package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/henningsieh/growagram/internal/ids"
	"github.com/henningsieh/growagram/internal/models"
	"github.com/henningsieh/growagram/internal/repository"
)

type createReportRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=5000"`
}

type reportResponse struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"authorId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toReportResponse(report models.Report) reportResponse {
	return reportResponse{
		ID:          report.ID,
		AuthorID:    report.AuthorID,
		Title:       report.Title,
		Description: report.Description,
		CreatedAt:   report.CreatedAt,
		UpdatedAt:   report.UpdatedAt,
	}
}

func (h HandlerSet) CreateReport(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	report := models.Report{
		ID:          ids.New(),
		AuthorID:    user.ID,
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.reports.Create(c.Request.Context(), report); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"report": toReportResponse(report)})
}

func (h HandlerSet) GetReport(c *gin.Context) {
	report, err := h.reports.GetByID(c.Request.Context(), c.Param("reportId"))
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": toReportResponse(report)})
}

func (h HandlerSet) ListReports(c *gin.Context) {
	limit := 20
	offset := 0
	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	reports, err := h.reports.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]reportResponse, 0, len(reports))
	for _, report := range reports {
		items = append(items, toReportResponse(report))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type createPostRequest struct {
	Date    string `json:"date" binding:"required"`
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"max=10000"`
}

func (h HandlerSet) CreateReportPost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	report, err := h.reports.GetByID(c.Request.Context(), c.Param("reportId"))
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

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_date"})
		return
	}

	now := time.Now().UTC()
	post := models.Post{
		ID:        ids.New(),
		ReportID:  report.ID,
		AuthorID:  user.ID,
		Date:      date,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.reports.CreatePost(c.Request.Context(), post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.reports.TouchReport(c.Request.Context(), report.ID); err != nil {
		h.log.Warn().Err(err).Str("report_id", report.ID).Msg("report touch failed")
	}

	c.JSON(http.StatusCreated, gin.H{"post": gin.H{
		"id":        post.ID,
		"reportId":  post.ReportID,
		"date":      req.Date,
		"title":     post.Title,
		"content":   post.Content,
		"createdAt": post.CreatedAt,
	}})
}

func (h HandlerSet) ListReportPosts(c *gin.Context) {
	posts, err := h.reports.ListPosts(c.Request.Context(), c.Param("reportId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		items = append(items, gin.H{
			"id":       post.ID,
			"reportId": post.ReportID,
			"authorId": post.AuthorID,
			"date":     post.Date.Format("2006-01-02"),
			"title":    post.Title,
			"content":  post.Content,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
