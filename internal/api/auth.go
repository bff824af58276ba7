package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"time"     // Timestamps for logging

	"blog_system/internal/domain"     // Importing domain models
	"blog_system/internal/middleware" // Session user extraction
	"blog_system/internal/security"   // Hashing, tokens, identifier rules

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Request struct for registration
type RegisterRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username or email
	Password string `json:"password" binding:"required"` // Password must be provided
}

// setSessionCookie attaches the access_token cookie with a 7-day max age
func setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(security.TokenCookieName, token, security.TokenMaxAge, "/", "", false, false)
}

// findByIdentifier looks a user up by email when the identifier matches the
// loose email pattern, by username otherwise
func findByIdentifier(db *gorm.DB, identifier string) (*domain.User, error) {
	var user domain.User // Fetched user record
	query := db.Where("username = ?", identifier)
	if security.IsEmail(identifier) {
		query = db.Where("email = ?", identifier) // Identifier routed to the email column
	}
	if err := query.First(&user).Error; err != nil {
		return nil, err // Not found or store failure
	}
	return &user, nil
}

// RegisterHandler creates a new user and opens a session for it
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Duplicate check routed by the identifier rule: the email column
		// when the supplied email matches the pattern, else the username column
		var existing domain.User
		query := db.Where("username = ?", req.Username)
		if security.IsEmail(req.Email) {
			query = db.Where("email = ?", req.Email)
		}
		if err := query.First(&existing).Error; err == nil {
			// An existing user already carries the identifier
			c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			// Unexpected store failure, underlying message surfaced
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		// Hash the password before persisting
		hash, err := security.HashPassword(req.Password)
		if err != nil {
			// If hashing fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := domain.User{
			Username: req.Username, // Unique username
			Email:    req.Email,    // Unique email
			Password: hash,         // Stored digest
			Role:     "user",       // Default role
		}
		// Create the user, re-issuing the token on a duplicate-key collision
		for attempt := 0; ; attempt++ {
			user.AccessToken = security.GenerateToken() // Fresh session token
			err = db.Create(&user).Error
			if err == nil {
				break // User persisted
			}
			// Retry only on duplicate-key errors, a bounded number of times
			if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt >= security.TokenRetries {
				break
			}
		}
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Unique constraint on username/email lost a race
				c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
				return
			}
			// Unexpected store failure, underlying message surfaced
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		setSessionCookie(c, user.AccessToken) // Return the token as a cookie
		// Log the registration event
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,       // New user ID
			"username": user.Username, // New username
		}).Info("User registered")
		c.JSON(http.StatusOK, user) // Return the created user
	}
}

// LoginHandler authenticates a user and rotates its session token
func LoginHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Resolve the identifier to a user record
		user, err := findByIdentifier(db, req.Username)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// No user carries the identifier
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			} else {
				// Unexpected store failure, underlying message surfaced
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		// Compare provided password with stored digest
		if !security.VerifyPassword(req.Password, user.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
			return
		}
		// Overwrite the stored token, re-issuing on a duplicate-key collision;
		// the previous token stops resolving from here on
		for attempt := 0; ; attempt++ {
			user.AccessToken = security.GenerateToken() // Fresh session token
			err = db.Model(user).Update("access_token", user.AccessToken).Error
			if err == nil {
				break // Token rotated
			}
			// Retry only on duplicate-key errors, a bounded number of times
			if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt >= security.TokenRetries {
				break
			}
		}
		if err != nil {
			// Unexpected store failure, underlying message surfaced
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		setSessionCookie(c, user.AccessToken) // Return the token as a cookie
		// Log the login event
		logrus.WithFields(logrus.Fields{
			"user_id":   user.ID,                         // User ID
			"username":  user.Username,                   // Username
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("User logged in")
		c.JSON(http.StatusOK, user) // Return the user with its new token
	}
}

// MeHandler returns the user resolved from the session cookie
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the resolved session user
		if !ok {
			// Middleware should have resolved a session already
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.JSON(http.StatusOK, user) // Return the session user
	}
}
