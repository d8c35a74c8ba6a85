package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRolesKey  = "roles"
)

// AuthMiddleware проверяет JWT access токен и кладёт в контекст
// идентификатор пользователя и его роли.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		userID, roles, err := tokens.ParseAccess(raw)
		if err != nil || userID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "токен невалиден"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRolesKey, roles)
		c.Next()
	}
}

// RolesFromContext возвращает роли текущего пользователя.
func RolesFromContext(c *gin.Context) []string {
	raw, ok := c.Get(ContextRolesKey)
	if !ok {
		return nil
	}
	roles, _ := raw.([]string)
	return roles
}

// HasRole проверяет наличие роли у текущего пользователя.
func HasRole(c *gin.Context, role string) bool {
	for _, r := range RolesFromContext(c) {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin сообщает, есть ли у текущего пользователя роль администратора.
func IsAdmin(c *gin.Context) bool {
	return HasRole(c, models.RoleAdmin)
}
