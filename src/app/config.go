package app

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type AppConfig struct {
	// =========================== REQUIRED ===========================

	// Database configuration (required)
	DSN *string
	// Redis configuration (required)
	RedisAddr *string
	// API secret for validating requests from the authenticating gateway (required)
	APISecret *string

	// =========================== OPTIONAL ===========================

	// Logging configuration
	LogLevel *string

	// HTTP server configuration
	Port *string
	Host *string

	// CORS configuration
	AllowOrigins *[]string

	// Tally scheduler configuration
	TallyInterval *int
	// Operator authority whose ended challenges are tallied automatically.
	// When unset the scheduler is disabled.
	OperatorAddress *common.Address

	// Migration configuration
	MigrationPath *string

	// Environment name ("dev", "staging", "prod")
	Environment *string
}

func NewAppConfig() *AppConfig {
	config := &AppConfig{}

	// Load required configuration
	loadRequiredConfig(config)

	// Load optional configuration with defaults
	loadOptionalConfig(config)

	return config
}

// loadRequiredConfig loads all required configuration values and fails fast if any are missing
func loadRequiredConfig(config *AppConfig) {
	// Database URL (required)
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatalf("REQUIRED: DB_URL not set in environment")
	}
	config.DSN = &dsn

	// Redis URL (required)
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		log.Fatalf("REQUIRED: REDIS_URL not set in environment")
	}
	config.RedisAddr = &redisAddr

	// API secret for validating requests from the gateway (required)
	apiSecret := os.Getenv("API_SECRET")
	if apiSecret == "" {
		log.Fatalf("REQUIRED: API_SECRET not set in environment")
	}
	config.APISecret = &apiSecret

	// CORS origins (required in production, optional in development)
	loadCORSConfig(config)
}

// loadOptionalConfig loads all optional configuration values with sensible defaults
func loadOptionalConfig(config *AppConfig) {
	// HTTP server port (default: 8080)
	port := getEnvWithDefault("PORT", "8080")
	config.Port = &port

	host := getEnvWithDefault("HOST", "localhost:"+port)
	config.Host = &host

	// Log level (default: debug)
	// Available levels: "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"
	logLevel := getEnvWithDefault("LOG_LEVEL", "debug")
	config.LogLevel = &logLevel

	// Tally scheduler interval in seconds (default: 60)
	tallyInterval := getTallyInterval()
	config.TallyInterval = &tallyInterval

	// Operator authority address (optional; disables the scheduler when unset)
	if operator := os.Getenv("OPERATOR_ADDRESS"); operator != "" {
		if !common.IsHexAddress(operator) {
			log.Fatalf("OPERATOR_ADDRESS is not a valid hex address: %s", operator)
		}
		address := common.HexToAddress(operator)
		config.OperatorAddress = &address
	}

	// Migration path (default: file://migrations)
	migrationPath := getEnvWithDefault("MIGRATION_PATH", "file://migrations")
	config.MigrationPath = &migrationPath

	environment := getEnvWithDefault("ENVIRONMENT", "dev")
	config.Environment = &environment
}

// loadCORSConfig handles CORS origins configuration with environment-specific behavior
func loadCORSConfig(config *AppConfig) {
	allowOriginsStr := os.Getenv("ALLOW_ORIGINS")
	var allowOrigins []string

	if allowOriginsStr != "" {
		// Parse comma-separated origins
		origins := strings.Split(allowOriginsStr, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowOrigins = append(allowOrigins, origin)
			}
		}
	} else {
		// Handle missing ALLOW_ORIGINS based on environment
		environment := os.Getenv("ENVIRONMENT")
		if environment == "development" || environment == "dev" || environment == "" {
			// Default to localhost in development
			allowOrigins = []string{"http://localhost:5173"}
		} else {
			log.Fatalf("REQUIRED: ALLOW_ORIGINS not set in environment (required in production)")
		}
	}

	config.AllowOrigins = &allowOrigins
}

// getTallyInterval parses the scheduler interval from environment with default fallback
func getTallyInterval() int {
	tallyIntervalStr := os.Getenv("TALLY_INTERVAL")
	if tallyIntervalStr == "" {
		return 60 // default to 1 minute
	}

	if parsed, err := strconv.Atoi(tallyIntervalStr); err == nil {
		return parsed
	}

	log.Printf("Warning: Invalid TALLY_INTERVAL value '%s', using default 60 seconds", tallyIntervalStr)
	return 60
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
