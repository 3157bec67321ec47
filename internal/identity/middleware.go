// Package identity resolves the caller from gateway-injected headers.
// Authentication itself happens upstream; this service trusts the X-User-ID
// and X-User-Role headers set by the API gateway.
package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"

	RoleAdmin = "admin"
)

func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User identity required"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_role", c.GetHeader(HeaderRole))

		c.Next()
	}
}

func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User role not found"})
			c.Abort()
			return
		}

		roleStr, ok := role.(string)
		if !ok || roleStr != requiredRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}

	id, ok := userID.(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}
