package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alairock/kash-money/internal/services"
)

// AdminMiddleware gates the super-admin surface on the configuration-supplied
// email allow-list. Assumes AuthMiddleware runs first.
func AdminMiddleware(adminService services.IAdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := UserEmail(c)
		if email == "" || !adminService.IsSuperAdmin(email) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Administrator privileges required"})
			return
		}
		c.Next()
	}
}
