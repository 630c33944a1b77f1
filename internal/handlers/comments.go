package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/henningsieh/growagram/internal/models"
	"github.com/henningsieh/growagram/internal/service"
)

type createCommentRequest struct {
	Content    string  `json:"content" binding:"required"`
	ResponseTo *string `json:"responseTo"`
}

type editCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type commentResponse struct {
	ID         string            `json:"id"`
	PostID     string            `json:"postId"`
	AuthorID   string            `json:"authorId"`
	Content    string            `json:"content"`
	ResponseTo *string           `json:"responseTo,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Responses  []commentResponse `json:"responses,omitempty"`
}

func toCommentResponse(comment models.Comment) commentResponse {
	return commentResponse{
		ID:         comment.ID,
		PostID:     comment.PostID,
		AuthorID:   comment.AuthorID,
		Content:    comment.Content,
		ResponseTo: comment.ResponseTo,
		CreatedAt:  comment.CreatedAt,
		UpdatedAt:  comment.UpdatedAt,
	}
}

func (h HandlerSet) CreateComment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), service.CreateCommentInput{
		PostID:     c.Param("postId"),
		AuthorID:   user.ID,
		Content:    req.Content,
		ResponseTo: req.ResponseTo,
	})
	if err != nil {
		writeCommentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": toCommentResponse(comment)})
}

func (h HandlerSet) EditComment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req editCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.commentService.Edit(c.Request.Context(), c.Param("commentId"), user.ID, req.Content)
	if err != nil {
		writeCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": toCommentResponse(comment)})
}

func (h HandlerSet) DeleteComment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	comment, err := h.commentService.Delete(c.Request.Context(), c.Param("commentId"), user.ID)
	if err != nil {
		writeCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": toCommentResponse(comment)})
}

// RemoveComment is the moderation variant of DeleteComment: no author check,
// the route requires a moderator or admin role.
func (h HandlerSet) RemoveComment(c *gin.Context) {
	comment, err := h.commentService.Remove(c.Request.Context(), c.Param("commentId"))
	if err != nil {
		writeCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": toCommentResponse(comment)})
}

func (h HandlerSet) ListComments(c *gin.Context) {
	threads, err := h.commentService.ListForPost(c.Request.Context(), c.Param("postId"))
	if err != nil {
		writeCommentError(c, err)
		return
	}

	items := make([]commentResponse, 0, len(threads))
	for _, thread := range threads {
		item := toCommentResponse(thread.Comment)
		for _, response := range thread.Responses {
			item.Responses = append(item.Responses, toCommentResponse(response))
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func writeCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_the_author"})
	case errors.Is(err, service.ErrContentLength):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_content_length"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
