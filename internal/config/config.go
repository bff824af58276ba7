package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort          string // Application port
	DBDriver         string // Database driver: mysql or sqlite
	DBUser           string // Database user (mysql)
	DBPassword       string // Database password (mysql)
	DBHost           string // Database host (mysql)
	DBPort           string // Database port (mysql)
	DBName           string // Database name (mysql)
	DBPath           string // Database file path (sqlite)
	RedisAddr        string // Redis server address, empty disables caching
	RedisPass        string // Redis password
	RedisDB          int    // Redis database number
	ImageDir         string // Directory for uploaded profile images
	StrictPostUpdate bool   // Enforce owner/admin check on post updates
	IsProd           bool   // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	cfg := &Config{
		AppPort:          os.Getenv("APP_PORT"),                    // Application port
		DBDriver:         os.Getenv("DB_DRIVER"),                   // Database driver
		DBUser:           os.Getenv("DB_USER"),                     // Database user
		DBPassword:       os.Getenv("DB_PASSWORD"),                 // Database password
		DBHost:           os.Getenv("DB_HOST"),                     // Database host
		DBPort:           os.Getenv("DB_PORT"),                     // Database port
		DBName:           os.Getenv("DB_NAME"),                     // Database name
		DBPath:           os.Getenv("DB_PATH"),                     // Database file path
		RedisAddr:        os.Getenv("REDIS_ADDR"),                  // Redis server address
		RedisPass:        os.Getenv("REDIS_PASS"),                  // Redis password
		RedisDB:          redisDB,                                  // Redis database number
		ImageDir:         os.Getenv("IMAGE_DIR"),                   // Profile image directory
		StrictPostUpdate: os.Getenv("STRICT_POST_UPDATE") == "true", // Post update ownership enforcement
		IsProd:           os.Getenv("IS_PROD") == "true",           // Is production environment
	}
	// Fallback defaults for local development
	if cfg.AppPort == "" {
		cfg.AppPort = "5000"
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = "sqlite"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "database.db"
	}
	if cfg.ImageDir == "" {
		cfg.ImageDir = "images/profile"
	}
	return cfg
}
