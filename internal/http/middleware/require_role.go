package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole пропускает запрос только при наличии одной из ролей.
// Использование: admin.Use(RequireRole(models.RoleAdmin)).
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, role := range roles {
			if HasRole(c, role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "недостаточно прав"})
	}
}
