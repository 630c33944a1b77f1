package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/henningsieh/growagram/internal/models"
	"github.com/henningsieh/growagram/internal/service"
)

func (h HandlerSet) LikeReport(c *gin.Context) {
	h.like(c, models.LikeTargetReport, c.Param("reportId"))
}

func (h HandlerSet) UnlikeReport(c *gin.Context) {
	h.unlike(c, models.LikeTargetReport, c.Param("reportId"))
}

func (h HandlerSet) LikeComment(c *gin.Context) {
	h.like(c, models.LikeTargetComment, c.Param("commentId"))
}

func (h HandlerSet) UnlikeComment(c *gin.Context) {
	h.unlike(c, models.LikeTargetComment, c.Param("commentId"))
}

func (h HandlerSet) like(c *gin.Context, target models.LikeTarget, targetID string) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	like, err := h.likeService.Like(c.Request.Context(), user.ID, target, targetID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	count, err := h.likeService.Count(c.Request.Context(), target, targetID)
	if err != nil {
		h.log.Warn().Err(err).Msg("like count failed")
	}

	c.JSON(http.StatusOK, gin.H{"likeId": like.ID, "likes": count})
}

func (h HandlerSet) unlike(c *gin.Context, target models.LikeTarget, targetID string) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.likeService.Unlike(c.Request.Context(), user.ID, target, targetID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	count, err := h.likeService.Count(c.Request.Context(), target, targetID)
	if err != nil {
		h.log.Warn().Err(err).Msg("like count failed")
	}

	c.JSON(http.StatusOK, gin.H{"likes": count})
}
