package domain

// User Model
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`                  // Primary key
	Username     string `gorm:"uniqueIndex;not null" json:"username"`  // Unique username
	Email        string `gorm:"uniqueIndex;not null" json:"email"`     // Unique email address
	Password     string `gorm:"not null" json:"-"`                     // Hashed password, never serialized
	AccessToken  string `gorm:"uniqueIndex" json:"access_token"`       // Current session token, replaced on every login
	Role         string `gorm:"default:user" json:"role"`              // Role: user or admin
	ProfileImage string `json:"profile_image,omitempty"`               // Stored profile image path, empty until uploaded
	Posts        []Post `gorm:"constraint:OnDelete:CASCADE;" json:"-"` // One-to-many relationship with Post
}
