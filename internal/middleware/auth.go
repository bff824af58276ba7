package middleware

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"blog_system/internal/domain"   // Importing domain models
	"blog_system/internal/security" // Session token constants

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// ContextUserKey is where the resolved session user is stored in the Gin context
const ContextUserKey = "currentUser"

// SessionAuthMiddleware resolves the access_token cookie to a user record
// and aborts with 401 when the token is absent or matches nobody.
func SessionAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(security.TokenCookieName) // Read the session cookie
		// Check if the cookie is present
		if err != nil || token == "" {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		var user domain.User // Fetch the user carrying this token
		if err := db.Where("access_token = ?", token).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Token was rotated or never issued
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			} else {
				// Unexpected store failure
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve session"})
			}
			return
		}
		c.Set(ContextUserKey, &user) // Store the resolved user in context
		c.Next()                     // Proceed to the next handler
	}
}

// CurrentUser extracts the session user placed in context by SessionAuthMiddleware
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, exists := c.Get(ContextUserKey) // Get user from context
	if !exists {
		return nil, false // No session resolved
	}
	user, ok := v.(*domain.User) // Assert the stored type
	return user, ok && user != nil
}

// AdminOnlyMiddleware allows only users whose role is admin
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c) // Get the resolved session user
		// Check if a session was resolved
		if !ok {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Check if user role is admin
		if user.Role != "admin" {
			// If not admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next() // If admin, proceed to the next handler
	}
}
