package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env                string
	Port               string
	LogLevel           string
	CORSAllowedOrigins []string

	// Database
	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBSQLitePath   string
	MigrationsPath string

	// JWT
	JWTSecret               string
	JWTExpirationDur        time.Duration
	JWTRefreshExpirationDur time.Duration

	// Login lockout
	MaxLoginAttempts int
	LoginLockoutDur  time.Duration

	// Metrics endpoint; empty disables it.
	MetricsAPIKey string

	// OTLP/gRPC collector address; empty disables tracing.
	OTelEndpoint string

	ShutdownTimeout time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Env:                getEnv("ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		// Database
		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "prism"),
		DBPassword:     getEnv("DB_PASSWORD", "prism"),
		DBName:         getEnv("DB_NAME", "prism"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		DBSQLitePath:   getEnv("DB_SQLITE_PATH", "prism.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),

		// JWT
		JWTSecret:               getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		JWTExpirationDur:        getDuration("JWT_EXPIRES_IN", 15*time.Minute),
		JWTRefreshExpirationDur: getDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),

		MaxLoginAttempts: getInt("MAX_LOGIN_ATTEMPTS", 5),
		LoginLockoutDur:  getDuration("LOGIN_LOCKOUT", 15*time.Minute),

		MetricsAPIKey: getEnv("METRICS_API_KEY", ""),
		OTelEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
