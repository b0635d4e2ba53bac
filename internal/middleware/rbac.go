package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
	"github.com/noah-isme/dims-api/pkg/response"
)

// RequireRoles only lets viewers holding one of roles through. Finer checks,
// such as authorship, stay in the services.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		viewer, ok := Viewer(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[viewer.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuthor admits the roles allowed to publish.
func RequireAuthor() gin.HandlerFunc {
	return RequireRoles(models.RoleSystemAdmin, models.RoleDivisionAdmin)
}
