package api

import (
	"net/http"
	"strconv"

	"forgefit/fitness-engine/internal/repository"
	"forgefit/fitness-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// AdaptationHandler exposes the weekly engine: a per-user manual run, an
// admin-only full batch trigger, and the audit trail.
type AdaptationHandler struct {
	engine    service.AdaptationEngine
	eventRepo repository.AdaptationEventRepository
}

// NewAdaptationHandler creates a new AdaptationHandler.
func NewAdaptationHandler(engine service.AdaptationEngine, eventRepo repository.AdaptationEventRepository) *AdaptationHandler {
	return &AdaptationHandler{engine: engine, eventRepo: eventRepo}
}

// AdaptMe runs the adaptation cycle for the authenticated user, outside
// the weekly cadence. Same code path as the scheduled run.
func (h *AdaptationHandler) AdaptMe(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	result, err := h.engine.AdaptUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Adaptation run failed")
		return
	}
	if result.NoActivePlan {
		abortWithError(c, http.StatusConflict, "No active plan to adapt")
		return
	}
	c.JSON(http.StatusOK, result)
}

// RunBatch triggers the full weekly batch immediately. Admin only.
func (h *AdaptationHandler) RunBatch(c *gin.Context) {
	summary, err := h.engine.RunWeekly(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Batch run failed")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// History returns the user's adaptation audit trail, newest first.
func (h *AdaptationHandler) History(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	limit := int64(20)
	if limitStr := c.Query("limit"); limitStr != "" {
		if n, err := strconv.ParseInt(limitStr, 10, 64); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	events, err := h.eventRepo.GetByUser(c.Request.Context(), userID, limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch adaptation history")
		return
	}
	c.JSON(http.StatusOK, events)
}
