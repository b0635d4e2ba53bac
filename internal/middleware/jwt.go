package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
	"github.com/noah-isme/dims-api/pkg/logger"
	"github.com/noah-isme/dims-api/pkg/response"
)

// ContextViewerKey is the gin context key storing the session claims.
const ContextViewerKey = "currentViewer"

type tokenValidator interface {
	ValidateToken(token string) (*models.SessionClaims, error)
}

// JWT protects routes by requiring a valid session token.
func JWT(sessions tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := sessions.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextViewerKey, claims)
		c.Set(logger.ViewerIDKey, claims.UserID)
		c.Next()
	}
}

// Viewer returns the authenticated viewer stored by JWT.
func Viewer(c *gin.Context) (models.Viewer, bool) {
	value, exists := c.Get(ContextViewerKey)
	if !exists {
		return models.Viewer{}, false
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok || claims == nil {
		return models.Viewer{}, false
	}
	return claims.Viewer(), true
}
