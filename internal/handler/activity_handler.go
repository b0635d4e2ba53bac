package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dims-api/internal/models"
	"github.com/noah-isme/dims-api/pkg/response"
)

type activityService interface {
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
}

// ActivityHandler serves the recent-activity feed.
type ActivityHandler struct {
	service activityService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(svc activityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// Recent godoc
// @Summary Recent board activity
// @Tags Activity
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /activity [get]
func (h *ActivityHandler) Recent(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entries)
}
