package auth

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// validates JWT tokens and adds account info to context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required", "message": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required", "message": "invalid authorization header format"})
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := ValidateJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required", "message": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("account_id", claims.AccountID)
		c.Set("account_email", claims.Email)
		c.Set("is_admin", claims.IsAdmin)

		c.Next()
	}
}

// extracts account_id from context after AuthMiddleware
func GetAccountID(c *gin.Context) (string, bool) {
	accountID, exists := c.Get("account_id")

	if !exists {
		return "", false
	}

	return accountID.(string), true
}

// validates JWT if present but doesn't require it
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")

		if len(parts) == 2 && parts[0] == "Bearer" {
			token := parts[1]
			claims, err := ValidateJWT(token)

			if err == nil {
				c.Set("account_id", claims.AccountID)
				c.Set("account_email", claims.Email)
				c.Set("is_admin", claims.IsAdmin)
			}
		}

		c.Next()
	}
}

// guards admin routes with the X-Admin-Key header
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminKey := os.Getenv("ADMIN_API_KEY")
		if adminKey == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dependency_unavailable", "message": "admin interface is not configured"})
			c.Abort()
			return
		}

		provided := c.GetHeader("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required", "message": "invalid admin key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
