package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "7")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("BASE_URL", "https://calbot.example")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, "Asia/Jerusalem", cfg.Timezone.String())
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.SendICS)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadInvalidTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SEND_ICS", "true")
	t.Setenv("GOOGLE_CALENDAR_ID", "work@group.calendar.google.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Timezone.String())
	assert.True(t, cfg.SendICS)
	assert.Equal(t, "work@group.calendar.google.com", cfg.CalendarID)
}
