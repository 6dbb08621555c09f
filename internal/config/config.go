package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	ServerPort  string
	FrontendURL string

	OpenAIKey string
	AIModel   string
	AIBaseURL string

	RedisURL    string
	RabbitMQURL string

	// Scheduler knobs. CheckInterval is the scan cadence; DetectionWindow is
	// how far ahead a pending task counts as due; HandlerTimeout bounds each
	// notification channel call so one broken channel cannot stall a scan.
	CheckInterval   time.Duration
	DetectionWindow time.Duration
	HandlerTimeout  time.Duration

	ChannelsFile string

	JWKSURL   string
	JWTIssuer string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTo       string

	SchedulerDebugMode bool
	ServerDebugMode    bool
	OTELEnabled        bool
	OTELEndpoint       string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		OpenAIKey: getEnv("OPENAI_API_KEY", ""),
		AIModel:   getEnv("AI_MODEL", ""),
		AIBaseURL: getEnv("AI_BASE_URL", ""),

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		CheckInterval:   time.Duration(getEnvInt("CHECK_INTERVAL_SECONDS", 60)) * time.Second,
		DetectionWindow: time.Duration(getEnvInt("DETECTION_WINDOW_SECONDS", 300)) * time.Second,
		HandlerTimeout:  time.Duration(getEnvInt("HANDLER_TIMEOUT_SECONDS", 10)) * time.Second,

		ChannelsFile: getEnv("CHANNELS_FILE", ""),

		JWKSURL:   getEnv("JWKS_URL", ""),
		JWTIssuer: getEnv("JWT_ISSUER", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM_EMAIL", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Reminder App"),
		SMTPTo:       getEnv("SMTP_TO_EMAIL", ""),

		SchedulerDebugMode: getEnvBool("SCHEDULER_DEBUG_MODE", false),
		ServerDebugMode:    getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.CheckInterval <= 0 {
		return nil, fmt.Errorf("CHECK_INTERVAL_SECONDS must be positive")
	}
	if cfg.DetectionWindow <= 0 {
		return nil, fmt.Errorf("DETECTION_WINDOW_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
