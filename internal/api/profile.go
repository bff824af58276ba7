package api

import (
	"net/http"      // HTTP status codes
	"os"            // Directory creation
	"path/filepath" // Path joining

	"blog_system/internal/middleware" // Session user extraction

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// GetProfileImageHandler streams the session user's stored profile image
func GetProfileImageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the resolved session user
		if !ok {
			// No session resolved, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Check if the user has a stored image
		if user.ProfileImage == "" {
			// If not, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile image not found"})
			return
		}
		c.Header("Content-Type", "image/jpeg") // Serve as a binary image response
		c.File(user.ProfileImage)              // Stream the stored file
	}
}

// UploadProfileImageHandler saves an uploaded image under imageDir keyed by
// its original filename (collisions overwrite) and records the path
func UploadProfileImageHandler(db *gorm.DB, imageDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the resolved session user
		if !ok {
			// No session resolved, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		file, err := c.FormFile("image") // Multipart file field
		if err != nil {
			// If the file is missing, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Ensure the image directory exists
		if err := os.MkdirAll(imageDir, 0o755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
			return
		}
		// Destination keyed by the original filename
		dst := filepath.Join(imageDir, filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, dst); err != nil {
			// If saving fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
			return
		}
		// Record the stored path on the user
		if err := db.Model(user).Update("profile_image", dst).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile image"})
			return
		}
		// Log the upload event
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID, // User ID
			"path":    dst,     // Stored path
		}).Info("Profile image uploaded")
		c.Header("Content-Type", "image/jpeg") // Echo the stored image back
		c.File(dst)                            // Stream the stored file
	}
}
