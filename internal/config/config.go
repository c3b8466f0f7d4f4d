package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Platform backend connection
	BackendURL     string
	BackendTimeout time.Duration

	// Auth token persistence
	TokenPath string

	// Parse lifecycle
	ParseTimeout time.Duration
	ParseTTL     time.Duration

	// Open document views
	DocCacheSize int

	// Upload limits
	MaxUploadBytes int64

	// Note previews
	NotePreviewLength int
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		BackendURL:     envOr("BACKEND_URL", "http://localhost:8080"),
		BackendTimeout: envDuration("BACKEND_TIMEOUT", 30*time.Second),

		TokenPath: envOr("TOKEN_PATH", defaultTokenPath()),

		ParseTimeout: envDuration("PARSE_TIMEOUT", 3*time.Minute),
		ParseTTL:     envDuration("PARSE_TTL", 1*time.Hour),

		DocCacheSize: envInt("DOC_CACHE_SIZE", 16),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		NotePreviewLength: envInt("NOTE_PREVIEW_LENGTH", 120),
	}

	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = 30 * time.Second
	}
	if cfg.ParseTimeout <= 0 {
		cfg.ParseTimeout = 3 * time.Minute
	}
	if cfg.ParseTTL <= 0 {
		cfg.ParseTTL = 1 * time.Hour
	}
	if cfg.DocCacheSize <= 0 {
		cfg.DocCacheSize = 16
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.NotePreviewLength <= 0 {
		cfg.NotePreviewLength = 120
	}

	return cfg
}

func (c Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	return nil
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".paperdeck/token"
	}
	return home + "/.paperdeck/token"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
