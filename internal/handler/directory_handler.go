package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dims-api/internal/models"
	"github.com/noah-isme/dims-api/pkg/response"
)

type directoryService interface {
	List(ctx context.Context, filter models.DirectoryFilter) ([]models.DirectoryUser, error)
	Get(ctx context.Context, id string) (*models.DirectoryUser, error)
	Candidates(ctx context.Context, selectedRoles []models.UserRole, search string) ([]models.DirectoryUser, error)
}

// DirectoryHandler serves the staff directory.
type DirectoryHandler struct {
	service directoryService
}

// NewDirectoryHandler constructs the handler.
func NewDirectoryHandler(svc directoryService) *DirectoryHandler {
	return &DirectoryHandler{service: svc}
}

// List godoc
// @Summary List directory users
// @Tags Directory
// @Produce json
// @Param role query string false "Role filter"
// @Param q query string false "Search name, email or unit"
// @Success 200 {object} response.Envelope
// @Router /directory-users [get]
func (h *DirectoryHandler) List(c *gin.Context) {
	filter := models.DirectoryFilter{
		Role:   models.UserRole(strings.ToUpper(strings.TrimSpace(c.Query("role")))),
		Search: c.Query("q"),
	}
	users, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, users)
}

// Get godoc
// @Summary Get directory user
// @Tags Directory
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /directory-users/{id} [get]
func (h *DirectoryHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// Candidates godoc
// @Summary People that can be targeted individually
// @Description Excludes system admins and members of the already selected roles
// @Tags Directory
// @Produce json
// @Param roles query string false "Comma separated selected roles"
// @Param q query string false "Search"
// @Success 200 {object} response.Envelope
// @Router /directory-users/candidates [get]
func (h *DirectoryHandler) Candidates(c *gin.Context) {
	var roles []models.UserRole
	for _, raw := range strings.Split(c.Query("roles"), ",") {
		if role := strings.ToUpper(strings.TrimSpace(raw)); role != "" {
			roles = append(roles, models.UserRole(role))
		}
	}
	users, err := h.service.Candidates(c.Request.Context(), roles, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, users)
}
