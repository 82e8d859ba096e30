package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port     string
	LogLevel string

	// Storage backend: "memory" or "postgres"
	StorageBackend string
	DBConnStr      string

	// Security settings
	JWTSecret         string
	AccessTokenExpiry time.Duration

	// Rate limiting
	RateLimitBurst int

	// Bootstrap admin account (created by the seeder when missing)
	AdminUsername string
	AdminPassword string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// Load reads configuration from environment variables, with a .env file
// fallback for local runs. Centralizes all configuration logic.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	Cfg = &AppConfig{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		StorageBackend:    getEnv("STORAGE_BACKEND", "memory"),
		DBConnStr:         buildDBConnStr(),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AccessTokenExpiry: getDurationEnv("ACCESS_TOKEN_EXPIRY", time.Hour),
		RateLimitBurst:    getIntEnv("RATE_LIMIT_BURST", 30),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
	}
}

// buildDBConnStr assembles the postgres connection string, either from an
// explicit DB_CONN_STR or from individual vars (Docker friendly).
func buildDBConnStr() string {
	if conn := os.Getenv("DB_CONN_STR"); conn != "" {
		return conn
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "postgres")
	dbname := getEnv("DB_NAME", "custodia")

	return "host=" + host + " port=" + port + " user=" + user +
		" password=" + password + " dbname=" + dbname + " sslmode=disable"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid integer for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s: %q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
