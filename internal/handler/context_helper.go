package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dims-api/internal/middleware"
	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
	"github.com/noah-isme/dims-api/pkg/response"
)

// viewerFromContext returns the authenticated viewer or answers 401.
func viewerFromContext(c *gin.Context) (models.Viewer, bool) {
	viewer, ok := middleware.Viewer(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Viewer{}, false
	}
	return viewer, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// respond writes data with any metadata collected on the context.
func respond(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	response.JSON(c, status, data, pagination, middleware.ExtractMeta(c))
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.WithDetails(appErrors.ErrValidation, "invalid query parameter", []string{key + ": must be an integer"})
	}
	return value, nil
}
