package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type resetWeekRequest struct {
	DryRun bool `json:"dry_run"`
}

// ResetWeek handles POST /api/admin/reset_week. It runs the same reset the
// weekly cron job does.
func (h *Handler) ResetWeek(c *gin.Context) {
	var req resetWeekRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	summary, err := h.store.ResetWeek(c.Request.Context(), h.now(), req.DryRun)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if !req.DryRun {
		h.flush()
	}
	h.log.Info("Weekly reset requested",
		zap.Bool("dry_run", summary.DryRun),
		zap.Int64("deactivated", summary.Deactivated))
	c.JSON(http.StatusOK, summary)
}

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
