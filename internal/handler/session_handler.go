package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dims-api/internal/models"
	"github.com/noah-isme/dims-api/pkg/response"
)

type sessionService interface {
	SignIn(ctx context.Context, req models.SessionRequest) (*models.SessionResponse, error)
}

// SessionHandler wires the simulated sign-in.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler creates a new handler.
func NewSessionHandler(svc sessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// SignIn godoc
// @Summary Sign in as a directory user
// @Description Pick a directory user and accept the terms to receive a session token
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body models.SessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session [post]
func (h *SessionHandler) SignIn(c *gin.Context) {
	var req models.SessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}

	res, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, res, nil)
}

// Current godoc
// @Summary Current viewer
// @Tags Session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Current(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	response.OK(c, viewer)
}
