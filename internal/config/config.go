package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the server
type Config struct {
	// HTTP
	ListenAddr  string
	HTTPTimeout time.Duration

	// Discord
	UserID     string
	GuildID    string
	InviteCode string
	ServerName string
	ServerIcon string

	// Upstream endpoints
	DiscordAPIURL       string
	DiscordLegacyAPIURL string
	LanyardRESTURL      string
	LanyardSocketURL    string

	// Bot (optional)
	BotToken       string
	StatusInterval time.Duration

	// Storage
	DatabasePath string
	ProfileFile  string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files if they exist (ignore error if not found)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, defaultValue string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		ListenAddr:          get("LISTEN_ADDR", ":8080"),
		UserID:              get("DISCORD_USER_ID", getenv("VITE_DC_PROFILE_UID")),
		GuildID:             get("DISCORD_GUILD_ID", getenv("VITE_DISCORD_SERVER_ID")),
		InviteCode:          get("DISCORD_INVITE_CODE", getenv("VITE_DISCORD_INVITE_CODE")),
		ServerName:          get("DISCORD_SERVER_NAME", get("VITE_DISCORD_SERVER_NAME", "Discord Server")),
		ServerIcon:          get("DISCORD_SERVER_ICON", get("VITE_DISCORD_SERVER_ICON", "/assets/servericon.jpg")),
		DiscordAPIURL:       getenv("DISCORD_API_URL"),
		DiscordLegacyAPIURL: getenv("DISCORD_LEGACY_API_URL"),
		LanyardRESTURL:      getenv("LANYARD_REST_URL"),
		LanyardSocketURL:    getenv("LANYARD_SOCKET_URL"),
		BotToken:            getenv("DISCORD_BOT_TOKEN"),
		DatabasePath:        get("DATABASE_PATH", "./data/profile.db"),
		ProfileFile:         getenv("PROFILE_FILE"),
		LogLevel:            get("LOG_LEVEL", "info"),
	}

	// Parse durations
	timeout, err := seconds(get("HTTP_TIMEOUT_SECONDS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT_SECONDS: %w", err)
	}
	cfg.HTTPTimeout = timeout

	interval, err := seconds(get("STATUS_INTERVAL_SECONDS", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATUS_INTERVAL_SECONDS: %w", err)
	}
	cfg.StatusInterval = interval

	return cfg, nil
}

// BotEnabled reports whether the Discord bot should run
func (c *Config) BotEnabled() bool {
	return c.BotToken != ""
}

func seconds(s string) (time.Duration, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return time.Duration(n) * time.Second, nil
}
