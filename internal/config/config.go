// Package config loads deployment configuration from the environment.
// Required values are validated up front: a deployment missing a secret or
// its zone database must refuse to start rather than serve broken requests.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds everything the service needs to run.
type Config struct {
	TelegramToken  string
	OwnerChatID    string
	GeminiAPIKey   string
	GeminiModel    string
	GoogleClientID string
	GoogleSecret   string
	CalendarID     string
	BaseURL        string // public URL this service is reachable at
	Timezone       *time.Location
	DBPath         string
	Port           string
	LogLevel       string
	SendICS        bool
}

// Load reads and validates configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		OwnerChatID:    os.Getenv("TELEGRAM_CHAT_ID"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getenv("GEMINI_MODEL", "gemini-2.0-flash"),
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
		CalendarID:     getenv("GOOGLE_CALENDAR_ID", "primary"),
		BaseURL:        os.Getenv("BASE_URL"),
		DBPath:         getenv("DB_PATH", "calbot.db"),
		Port:           getenv("PORT", "8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		SendICS:        os.Getenv("SEND_ICS") == "true",
	}

	required := map[string]string{
		"TELEGRAM_BOT_TOKEN":   cfg.TelegramToken,
		"TELEGRAM_CHAT_ID":     cfg.OwnerChatID,
		"GEMINI_API_KEY":       cfg.GeminiAPIKey,
		"GOOGLE_CLIENT_ID":     cfg.GoogleClientID,
		"GOOGLE_CLIENT_SECRET": cfg.GoogleSecret,
		"BASE_URL":             cfg.BaseURL,
	}
	for name, v := range required {
		if v == "" {
			return nil, fmt.Errorf("%s environment variable not set", name)
		}
	}

	tzStr := getenv("TIMEZONE", "Asia/Jerusalem")
	loc, err := time.LoadLocation(tzStr)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", tzStr, err)
	}
	cfg.Timezone = loc

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
