package api

import (
	"blog_system/internal/config"     // Custom package for configuration
	"blog_system/internal/middleware" // Session and admin middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// SetupRouter assembles the Gin engine with every route and middleware chain.
// rdb may be nil, which disables caching.
func SetupRouter(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	r := gin.Default() // Gin router instance

	// Auth routes
	auth := r.Group("/auth")
	auth.POST("/register", RegisterHandler(db)) // Registration endpoint
	auth.POST("/login", LoginHandler(db))       // Login endpoint

	// Session-gated auth routes (cookie required)
	authProtected := auth.Group("")
	authProtected.Use(middleware.SessionAuthMiddleware(db))
	authProtected.GET("/me", MeHandler())                                          // Current user endpoint
	authProtected.GET("/profile-image", GetProfileImageHandler())                  // Profile image download
	authProtected.POST("/profile-image", UploadProfileImageHandler(db, cfg.ImageDir)) // Profile image upload

	// Post routes
	posts := r.Group("/posts")
	posts.GET("/:field", ListPostsHandler(db, rdb)) // Filtered listing, no auth required
	// Create and delete always require a session
	posts.POST("", middleware.SessionAuthMiddleware(db), CreatePostHandler(db, rdb))
	posts.DELETE("/:id", middleware.SessionAuthMiddleware(db), DeletePostHandler(db, rdb))
	// Update is session-gated only when strict ownership is configured
	if cfg.StrictPostUpdate {
		posts.PUT("/:id", middleware.SessionAuthMiddleware(db), UpdatePostHandler(db, rdb, true))
	} else {
		posts.PUT("/:id", UpdatePostHandler(db, rdb, false))
	}

	// Admin routes (session required, admin only)
	admin := r.Group("/admin")
	admin.Use(middleware.SessionAuthMiddleware(db), middleware.AdminOnlyMiddleware())
	admin.GET("/users", ListUsersHandler(db, rdb)) // List users endpoint

	return r
}
