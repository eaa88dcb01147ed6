package api

import (
	"net/http"
	"time"

	"forgefit/fitness-engine/internal/repository"

	"github.com/gin-gonic/gin"
)

// ActivityHandler exposes the raw activity log. Writes happen through
// the plan progress endpoint; this is read-only.
type ActivityHandler struct {
	activityRepo repository.ActivityRepository
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activityRepo repository.ActivityRepository) *ActivityHandler {
	return &ActivityHandler{activityRepo: activityRepo}
}

// ListActivity returns the user's log entries in a date range,
// defaulting to the last seven days.
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -7)
	if fromStr := c.Query("from"); fromStr != "" {
		if t, err := time.Parse(time.RFC3339, fromStr); err == nil {
			from = t
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if t, err := time.Parse(time.RFC3339, toStr); err == nil {
			to = t
		}
	}
	if !from.Before(to) {
		abortWithError(c, http.StatusBadRequest, "from must be before to")
		return
	}

	entries, err := h.activityRepo.GetByUserAndRange(c.Request.Context(), userID, from, to)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to fetch activity log")
		return
	}
	c.JSON(http.StatusOK, entries)
}
