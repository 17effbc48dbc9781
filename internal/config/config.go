package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           string
	DatabaseURL    string
	SessionSecret  string
	SiteURL        string
	StorageTimeout time.Duration

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// openFDA sync. SyncHour < 0 disables the in-process scheduler and leaves
	// the cron endpoint as the only trigger.
	CronSecret      string
	OpenFDABaseURL  string
	OpenFDAAPIKey   string
	OpenFDASearch   string
	OpenFDAMaxPages int
	SyncHour        int

	// Translation proxy
	TranslateEndpoint string
	TranslateAppID    string
	TranslateSecret   string
}

func Load() Config {
	return Config{
		Port:           getenv("PORT", "8080"),
		DatabaseURL:    getenv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=regintel port=5432 sslmode=disable TimeZone=UTC"),
		SessionSecret:  getenv("SESSION_SECRET", "secret_key_change_me"),
		SiteURL:        getenv("SITE_URL", "http://localhost:8080"),
		StorageTimeout: getenvDuration("STORAGE_TIMEOUT", 5*time.Second),

		GoogleClientID:     getenv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getenv("GOOGLE_CLIENT_SECRET", ""),

		CronSecret:      getenv("CRON_SECRET", ""),
		OpenFDABaseURL:  getenv("OPENFDA_BASE_URL", "https://api.fda.gov"),
		OpenFDAAPIKey:   getenv("OPENFDA_API_KEY", ""),
		OpenFDASearch:   getenv("OPENFDA_SEARCH", ""),
		OpenFDAMaxPages: getenvInt("OPENFDA_MAX_PAGES", 10),
		SyncHour:        getenvInt("SYNC_HOUR", -1),

		TranslateEndpoint: getenv("TRANSLATE_ENDPOINT", "https://fanyi-api.baidu.com/api/trans/vip/translate"),
		TranslateAppID:    getenv("TRANSLATE_APP_ID", ""),
		TranslateSecret:   getenv("TRANSLATE_SECRET", ""),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
