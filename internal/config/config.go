package config

import (
	"fmt"     // DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting lists
	"time"    // Token lifetime

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort         string        // Application port
	DBUser          string        // Database user
	DBPassword      string        // Database password
	DBHost          string        // Database host
	DBPort          string        // Database port
	DBName          string        // Database name
	DBMaxOpenConns  int           // Connection pool size
	DBMaxIdleConns  int           // Idle connections kept in the pool
	JWTSecret       string        // JWT secret key
	JWTExpiresIn    time.Duration // Access token lifetime
	RedisAddr       string        // Redis server address, empty disables Redis
	RedisPass       string        // Redis password
	RedisDB         int           // Redis database number
	IsProd          bool          // Is production environment
	AllowedOrigins  []string      // CORS origins
	UploadDir       string        // Root directory for uploaded images
	LogDir          string        // Directory for access and error logs
	StaticDir       string        // Directory with css/js/images
	ThrottleBackend string        // "memory" or "redis"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:         getEnv("APP_PORT", "3000"),
		DBUser:          getEnv("DB_USER", "root"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "3306"),
		DBName:          getEnv("DB_NAME", "alquimia_technologic_store"),
		DBMaxOpenConns:  getInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:  getInt("DB_MAX_IDLE_CONNS", 5),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTExpiresIn:    getDuration("JWT_EXPIRES_IN", 24*time.Hour),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPass:       os.Getenv("REDIS_PASS"),
		RedisDB:         redisDB,
		IsProd:          os.Getenv("IS_PROD") == "true",
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		LogDir:          getEnv("LOG_DIR", "logs"),
		StaticDir:       getEnv("STATIC_DIR", "public"),
		ThrottleBackend: getEnv("LOGIN_THROTTLE_BACKEND", "memory"),
	}
}

// DSN returns the MySQL data source name
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// Environment names the running environment for health output
func (c *Config) Environment() string {
	if c.IsProd {
		return "production"
	}
	return "development"
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

// getDuration accepts Go durations ("24h") and bare hours ("24")
func getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if h, err := strconv.Atoi(raw); err == nil && h > 0 {
		return time.Duration(h) * time.Hour
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
