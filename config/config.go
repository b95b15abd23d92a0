package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configurable server parameters.
type Config struct {
	WSPort        int `json:"ws_port"`
	MaxNameLength int `json:"max_name_length"`

	// DatabaseURL points at the external deck collection. Empty means catalog decks only.
	DatabaseURL string `json:"database_url"`
	// AuthBaseURL is the identity provider base URL serving /.well-known/jwks.json.
	// Empty disables the auth message; players identify with set_name.
	AuthBaseURL string `json:"auth_base_url"`

	// CatalogPath is a YAML card catalog. Empty uses the built-in catalog.
	CatalogPath string `json:"catalog_path"`
	DefaultDeck string `json:"default_deck"`

	LobbyStaleMinutes       int `json:"lobby_stale_minutes"`
	LobbyCleanupIntervalSec int `json:"lobby_cleanup_interval_sec"`

	LogLevel string `json:"log_level"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		WSPort:                  8080,
		MaxNameLength:           24,
		DefaultDeck:             "vanguard",
		LobbyStaleMinutes:       30,
		LobbyCleanupIntervalSec: 60,
		LogLevel:                "info",
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	return LoadFile("config.json")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) *Config {
	cfg := Defaults()

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config file", "tag", "config", "path", path, "err", err)
		}
	}

	overrideInt(&cfg.WSPort, "WS_PORT")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.AuthBaseURL, "AUTH_BASE_URL")
	overrideString(&cfg.CatalogPath, "CATALOG_PATH")
	overrideString(&cfg.DefaultDeck, "DEFAULT_DECK")
	overrideInt(&cfg.LobbyStaleMinutes, "LOBBY_STALE_MINUTES")
	overrideInt(&cfg.LobbyCleanupIntervalSec, "LOBBY_CLEANUP_INTERVAL_SEC")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")

	return cfg
}

// LobbyStaleAfter is how long an unjoined lobby lives.
func (c *Config) LobbyStaleAfter() time.Duration {
	return time.Duration(c.LobbyStaleMinutes) * time.Minute
}

// LobbyCleanupInterval is the period of the stale lobby sweep, at least one second.
func (c *Config) LobbyCleanupInterval() time.Duration {
	if c.LobbyCleanupIntervalSec < 1 {
		return time.Second
	}
	return time.Duration(c.LobbyCleanupIntervalSec) * time.Second
}

// Level parses LogLevel (debug, info, warn, error). Unknown values mean info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid integer in environment", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
