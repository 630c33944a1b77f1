package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Storage     string `json:"storage"`
	Environment string `json:"environment"`
}

// Health pings the dependencies. The database being down makes the whole
// service unhealthy; a broken cache or object store only degrades it.
func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Database:    "ok",
		Cache:       "ok",
		Storage:     "ok",
		Environment: h.cfg.Environment,
	}
	code := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		resp.Database = "error"
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
		h.log.Error().Err(err).Msg("database ping failed")
	}

	if err := h.cache.Ping(ctx).Err(); err != nil {
		resp.Cache = "error"
		if resp.Status == "ok" {
			resp.Status = "degraded"
		}
		h.log.Error().Err(err).Msg("redis ping failed")
	}

	if err := h.store.Ping(ctx); err != nil {
		resp.Storage = "error"
		if resp.Status == "ok" {
			resp.Status = "degraded"
		}
		h.log.Error().Err(err).Msg("object store ping failed")
	}

	c.JSON(code, resp)
}
