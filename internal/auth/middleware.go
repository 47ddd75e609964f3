package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ExtractKey pulls the presented API key from the request headers.
// X-API-Key wins; Authorization (with or without a Bearer prefix) is the
// fallback.
func ExtractKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	return c.GetHeader("Authorization")
}

// RequireAdmin gates admin endpoints behind the X-Admin-Token header.
// When no admin token is configured, admin endpoints are disabled outright.
func RequireAdmin(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("X-Admin-Token")
		if adminToken == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(adminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Valid X-Admin-Token header required.",
			})
			return
		}
		c.Next()
	}
}
