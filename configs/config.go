package config

import (
	"os"
	"strconv"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// PublishRetry holds the retry policy for the Instagram container publish
// flow. The numbers are policy, not mechanism: tests inject millisecond
// values, production reads them from the environment.
type PublishRetry struct {
	StatusPollAttempts   int
	StatusPollDelayMs    int
	PublishSettleDelayMs int
	PublishRetryAttempts int
	PublishBackoffBaseMs int
	PublishBackoffStepMs int
}

type Config struct {
	InstagramClientID     string
	InstagramClientSecret string
	TiktokClientKey       string
	TiktokClientSecret    string
	GoogleClientID        string
	GoogleClientSecret    string
	LinkedinClientID      string
	LinkedinClientSecret  string
	PostgresURI           string
	RedisURI              string
	FrontendURL           string
	R2                    R2
	SecretKey             string
	CookieName            string

	PollIntervalMinutes        int
	PollLookbackHours          int
	TokenRefreshHorizonMinutes int
	Retry                      PublishRetry
}

func LoadConfig() *Config {
	return &Config{
		InstagramClientID:     getEnv("INSTAGRAM_CLIENT_ID", ""),
		InstagramClientSecret: getEnv("INSTAGRAM_CLIENT_SECRET", ""),
		TiktokClientKey:       getEnv("TIKTOK_CLIENT_KEY", ""),
		TiktokClientSecret:    getEnv("TIKTOK_CLIENT_SECRET", ""),
		GoogleClientID:        getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:    getEnv("GOOGLE_CLIENT_SECRET", ""),
		LinkedinClientID:      getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedinClientSecret:  getEnv("LINKEDIN_CLIENT_SECRET", ""),
		PostgresURI:           getEnv("POSTGRES_URI", ""),
		RedisURI:              getEnv("REDIS_URI", ""),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", ""),

		PollIntervalMinutes:        getEnvInt("POLL_INTERVAL_MINUTES", 10),
		PollLookbackHours:          getEnvInt("POLL_LOOKBACK_HOURS", 24),
		TokenRefreshHorizonMinutes: getEnvInt("TOKEN_REFRESH_HORIZON_MINUTES", 5),
		Retry: PublishRetry{
			StatusPollAttempts:   getEnvInt("IG_STATUS_POLL_ATTEMPTS", 10),
			StatusPollDelayMs:    getEnvInt("IG_STATUS_POLL_DELAY_MS", 2000),
			PublishSettleDelayMs: getEnvInt("IG_PUBLISH_SETTLE_DELAY_MS", 3000),
			PublishRetryAttempts: getEnvInt("IG_PUBLISH_RETRY_ATTEMPTS", 3),
			PublishBackoffBaseMs: getEnvInt("IG_PUBLISH_BACKOFF_BASE_MS", 5000),
			PublishBackoffStepMs: getEnvInt("IG_PUBLISH_BACKOFF_STEP_MS", 2000),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
