package db

import (
	"blog_system/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{}, &domain.Post{})
}
