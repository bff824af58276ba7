package db

import (
	"fmt"  // Error formatting
	"time" // Connection lifetime

	"blog_system/internal/config" // Custom package for configuration

	"gorm.io/driver/mysql"  // MySQL driver for GORM
	"gorm.io/driver/sqlite" // SQLite driver for GORM
	"gorm.io/gorm"          // GORM ORM library
)

// Open connects to the configured database (mysql or sqlite)
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector // Driver selected from configuration
	switch cfg.DBDriver {
	case "mysql":
		// Data Source Name (DSN) for MySQL connection
		dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBPath) // SQLite database file
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}

	// TranslateError normalizes duplicate-key errors across drivers
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true}) // Open the connection
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Connection pool tuning
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
