// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultRedirectURI = "urn:ietf:wg:oauth:2.0:oob"
	DefaultScope       = "public read_user write_likes"
	DefaultAPIURL      = "https://api.unsplash.com"
	DefaultAuthURL     = "https://unsplash.com"
	DefaultPageSize    = 10
	DefaultSessionIdle = 60 * time.Minute
	DefaultDatabase    = "./data/bot.db"
	DefaultLogLevel    = "info"

	maxPageSize = 30
)

// Unsplash holds the registered application credentials and endpoints.
type Unsplash struct {
	AccessKey   string
	SecretKey   string
	RedirectURI string
	Scope       string
	APIURL      string
	AuthURL     string
}

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	Unsplash         Unsplash
	PageSize         int
	SessionIdle      time.Duration
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	accessKey := os.Getenv("UNSPLASH_ACCESS_KEY")
	if accessKey == "" {
		return nil, fmt.Errorf("UNSPLASH_ACCESS_KEY is required")
	}

	pageSize, err := intEnv("PAGE_SIZE", DefaultPageSize)
	if err != nil {
		return nil, err
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return nil, fmt.Errorf("PAGE_SIZE must be between 1 and %d, got %d", maxPageSize, pageSize)
	}

	idle := DefaultSessionIdle
	if raw := os.Getenv("SESSION_IDLE_MINUTES"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return nil, fmt.Errorf("invalid SESSION_IDLE_MINUTES %q", raw)
		}
		idle = time.Duration(minutes) * time.Minute
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	return &Config{
		TelegramBotToken: token,
		Unsplash: Unsplash{
			AccessKey:   accessKey,
			SecretKey:   os.Getenv("UNSPLASH_SECRET_KEY"),
			RedirectURI: env("UNSPLASH_REDIRECT_URI", DefaultRedirectURI),
			Scope:       env("UNSPLASH_SCOPE", DefaultScope),
			APIURL:      env("UNSPLASH_API_URL", DefaultAPIURL),
			AuthURL:     env("UNSPLASH_AUTH_URL", DefaultAuthURL),
		},
		PageSize:     pageSize,
		SessionIdle:  idle,
		DatabasePath: env("DATABASE_PATH", DefaultDatabase),
		LogLevel:     env("LOG_LEVEL", DefaultLogLevel),
		AllowedUsers: allowedUsers,
	}, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.AllowedUsers, userID)
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
