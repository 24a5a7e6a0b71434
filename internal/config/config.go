package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Brand being monitored and the search terms used for it
	Brand    string
	Keywords []string

	// Schedule configuration
	ReportSchedule string // "daily" or "weekly"

	// Cache policy
	CacheTTL         time.Duration
	CacheMaxStaleAge time.Duration

	// Fetch orchestration
	FetchBatchSize  int
	FetchBatchDelay time.Duration
	MaxPerSource    int
	DaysBack        int

	// Sentiment enrichment
	SentimentProvider   string // "openai", "vader" or "off"
	SentimentBatchSize  int
	SentimentBatchDelay time.Duration
	SentimentTimeout    time.Duration
	OpenAIAPIKey        string
	OpenAIModel         string

	// Source credentials
	RedditClientID     string
	RedditClientSecret string
	TwitterBearerToken string
	YouTubeAPIKey      string

	// Snapshot archive
	StorageAccount   string
	StorageContainer string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		Brand:    getEnv("BRAND", ""),
		Keywords: getSliceEnv("KEYWORDS", nil),

		ReportSchedule: getEnv("REPORT_SCHEDULE", "daily"),

		CacheTTL:         getDurationEnv("CACHE_TTL", 2*time.Hour),
		CacheMaxStaleAge: getDurationEnv("CACHE_MAX_STALE_AGE", 24*time.Hour),

		FetchBatchSize:  getIntEnv("FETCH_BATCH_SIZE", 2),
		FetchBatchDelay: getDurationEnv("FETCH_BATCH_DELAY", time.Second),
		MaxPerSource:    getIntEnv("MAX_PER_SOURCE", 50),
		DaysBack:        getIntEnv("DAYS_BACK", 7),

		SentimentProvider:   strings.ToLower(getEnv("SENTIMENT_PROVIDER", "vader")),
		SentimentBatchSize:  getIntEnv("SENTIMENT_BATCH_SIZE", 8),
		SentimentBatchDelay: getDurationEnv("SENTIMENT_BATCH_DELAY", 500*time.Millisecond),
		SentimentTimeout:    getDurationEnv("SENTIMENT_TIMEOUT", 10*time.Second),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", ""),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		TwitterBearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
		YouTubeAPIKey:      getEnv("YOUTUBE_API_KEY", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "mention-snapshots"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	if len(cfg.Keywords) == 0 && cfg.Brand != "" {
		cfg.Keywords = []string{cfg.Brand}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Brand == "" {
		return fmt.Errorf("BRAND is required")
	}

	if c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" {
		return fmt.Errorf("REPORT_SCHEDULE must be 'daily' or 'weekly'")
	}

	switch c.SentimentProvider {
	case "openai", "vader", "off":
	default:
		return fmt.Errorf("SENTIMENT_PROVIDER must be 'openai', 'vader' or 'off'")
	}

	if c.SentimentBatchSize < 1 || c.SentimentBatchSize > 10 {
		return fmt.Errorf("SENTIMENT_BATCH_SIZE must be between 1 and 10")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// SearchWindowDays is the lookback for scheduled runs, derived from the
// report schedule.
func (c *Config) SearchWindowDays() int {
	if c.ReportSchedule == "weekly" {
		return 7
	}
	return 1
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
