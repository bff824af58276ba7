package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Timestamps

	"blog_system/internal/domain"     // Importing domain models
	"blog_system/internal/middleware" // Session user extraction
	"blog_system/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct shared by post creation and update
type PostRequest struct {
	Title   string `json:"title" binding:"required"`   // Post title must be provided
	Content string `json:"content" binding:"required"` // Post body must be provided
}

// postCacheKey builds the cache key for a post list query
func postCacheKey(field, q string) string {
	return "posts:field=" + field + ":q=" + q
}

// invalidatePostCache drops every list cache entry a post can appear under
func invalidatePostCache(ctx context.Context, rdb *redis.Client, post *domain.Post) {
	_ = utils.DeleteCache(ctx, rdb,
		postCacheKey("all", ""),                                        // Full listing
		postCacheKey("id", strconv.Itoa(int(post.ID))),                 // By post ID
		postCacheKey("user_id", strconv.Itoa(int(post.UserID))),        // By owner
		postCacheKey("title", post.Title),                              // By exact title
		postCacheKey("content", post.Content),                          // By exact content
	)
}

// CreatePostHandler creates a post owned by the session user
func CreatePostHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the resolved session user
		if !ok {
			// No session resolved, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req PostRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		now := time.Now() // Creation and edit timestamps start equal
		post := domain.Post{
			Title:     req.Title,   // Post title
			Content:   req.Content, // Post body
			UserID:    user.ID,     // Owner is the session user, never the request
			CreatedAt: now,         // Set once
			EditedAt:  now,         // Equal to created_at on creation
		}
		// Persist the post
		if err := db.Create(&post).Error; err != nil {
			// If creation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
			return
		}
		invalidatePostCache(context.Background(), rdb, &post) // Drop stale list entries
		// Log the creation event
		logrus.WithFields(logrus.Fields{
			"post_id": post.ID, // New post ID
			"user_id": user.ID, // Owner
		}).Info("Post created")
		c.JSON(http.StatusOK, post) // Return the created post
	}
}

// ListPostsHandler returns posts filtered by a single field, redis cached
func ListPostsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()  // Use background context for Redis
		field := c.Param("field")    // Filter field from the path
		q := c.Query("q")            // Filter value from the query string
		cacheKey := postCacheKey(field, q)
		var cached []domain.Post // Cached post list
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		query := db.Model(&domain.Post{}) // Start building the query
		switch field {
		case "all":
			// No filter, every post
		case "id", "user_id":
			v, err := strconv.Atoi(q) // id and user_id require an integer query
			if err != nil {
				// If not an integer, return bad request
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
				return
			}
			query = query.Where(field+" = ?", v) // Filter by the numeric column
		case "title", "content":
			query = query.Where(field+" = ?", q) // Exact equality match
		default:
			// Unknown field, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid field"})
			return
		}
		posts := []domain.Post{} // Slice to hold posts, empty list when none match
		if err := query.Find(&posts).Error; err != nil {
			// If the query fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
			return
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, posts, 60*time.Second)
		c.JSON(http.StatusOK, posts) // Return the post list
	}
}

// UpdatePostHandler overwrites a post's title/content and refreshes edited_at.
// With strict off this matches the legacy surface: no auth and a silent
// no-op when the id matches nothing. With strict on the route carries the
// session middleware and the delete endpoint's owner/admin policy applies.
func UpdatePostHandler(db *gorm.DB, rdb *redis.Client, strict bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Post ID from the path
		if err != nil {
			// If not an integer, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
			return
		}
		var req PostRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var post domain.Post // Fetch the current post for cache invalidation
		fetchErr := db.First(&post, id).Error
		if strict {
			if errors.Is(fetchErr, gorm.ErrRecordNotFound) {
				// Strict mode surfaces missing posts
				c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
				return
			}
			user, ok := middleware.CurrentUser(c) // Get the resolved session user
			if !ok {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			// Same policy as delete: owner or admin only
			if post.UserID != user.ID && user.Role != "admin" {
				c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to edit this post"})
				return
			}
		}
		now := time.Now() // Refreshed edit timestamp
		if fetchErr == nil {
			invalidatePostCache(context.Background(), rdb, &post) // Drop entries under the old values
			// Unconditional overwrite of title/content plus edited_at
			updates := map[string]any{"title": req.Title, "content": req.Content, "edited_at": now}
			if err := db.Model(&domain.Post{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
				return
			}
			post.Title = req.Title     // Reflect the overwrite
			post.Content = req.Content // Reflect the overwrite
			post.EditedAt = now
			invalidatePostCache(context.Background(), rdb, &post) // Drop entries under the new values
			// Log the update event
			logrus.WithFields(logrus.Fields{
				"post_id": post.ID, // Updated post ID
			}).Info("Post updated")
		}
		// Echo the updated fields, also when the id matched nothing
		c.JSON(http.StatusOK, gin.H{
			"title":     req.Title,   // New title
			"content":   req.Content, // New content
			"edited_at": now,         // Refreshed timestamp
		})
	}
}

// DeletePostHandler removes a post, owner or admin only
func DeletePostHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the resolved session user
		if !ok {
			// No session resolved, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, err := strconv.Atoi(c.Param("id")) // Post ID from the path
		if err != nil {
			// If not an integer, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
			return
		}
		var post domain.Post // Fetch the post to delete
		if err := db.First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// No post carries this ID
				c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
			}
			return
		}
		// Check ownership: only the owner or an admin may delete
		if post.UserID != user.ID && user.Role != "admin" {
			// If neither, return forbidden
			c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to delete this post"})
			return
		}
		// Remove the post permanently
		if err := db.Delete(&post).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
			return
		}
		invalidatePostCache(context.Background(), rdb, &post) // Drop stale list entries
		// Log the deletion event
		logrus.WithFields(logrus.Fields{
			"post_id":    post.ID, // Deleted post ID
			"deleted_by": user.ID, // Acting user
		}).Info("Post deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"}) // Return success message
	}
}
