package domain

import "time"

// Post Model
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`     // Primary key
	Title     string    `gorm:"not null" json:"title"`    // Post title
	Content   string    `gorm:"not null" json:"content"`  // Post body
	UserID    uint      `gorm:"not null" json:"user_id"`  // Foreign key to the owning User
	CreatedAt time.Time `json:"created_at"`               // Set once on creation
	EditedAt  time.Time `json:"edited_at"`                // Refreshed on every update
}
