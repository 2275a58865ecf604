// ABOUTME: Centralized configuration for the speckeep memory engine
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the memory engine. It is read once
// at initialization and treated as immutable for the process lifetime.
type Config struct {
	// Storage settings
	DBPath    string
	SpecsRoot string

	// Template settings; empty means use the embedded defaults
	TemplateDir string

	// Session dedup settings
	SessionTTL        time.Duration
	MaxSentPerSession int
	DisableDedup      bool

	// Channel settings
	DefaultChannel  string
	ChannelCacheTTL time.Duration
	GitTimeout      time.Duration

	// OpenAI settings (optional, enables semantic recall)
	OpenAIKey      string
	EmbeddingModel string
	MaxRetries     int
	RetryDelay     time.Duration
}

// DefaultDBPath returns the default database file path following the XDG
// spec. Respects XDG_DATA_HOME for overrides in tests.
func DefaultDBPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".local", "share", "speckeep", "speckeep.db")
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataHome, "speckeep", "speckeep.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:            getEnv("SPECKEEP_DB_PATH", DefaultDBPath()),
		SpecsRoot:         getEnv("SPECKEEP_SPECS_ROOT", "specs"),
		TemplateDir:       os.Getenv("SPECKEEP_TEMPLATE_DIR"),
		SessionTTL:        time.Duration(getEnvInt("SPECKEEP_SESSION_TTL_MINUTES", 30)) * time.Minute,
		MaxSentPerSession: getEnvInt("SPECKEEP_MAX_SENT_PER_SESSION", 100),
		DisableDedup:      getEnvBool("SPECKEEP_DISABLE_DEDUP", false),
		DefaultChannel:    getEnv("SPECKEEP_DEFAULT_CHANNEL", "general"),
		ChannelCacheTTL:   5 * time.Second,
		GitTimeout:        time.Second,
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		EmbeddingModel:    getEnv("SPECKEEP_EMBEDDING_MODEL", "text-embedding-3-small"),
		MaxRetries:        getEnvInt("SPECKEEP_MAX_RETRIES", 3),
		RetryDelay:        getEnvDuration("SPECKEEP_RETRY_DELAY", 2*time.Second),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SPECKEEP_SESSION_TTL_MINUTES must be positive, got %v", c.SessionTTL)
	}
	if c.MaxSentPerSession <= 0 {
		return fmt.Errorf("SPECKEEP_MAX_SENT_PER_SESSION must be positive, got %d", c.MaxSentPerSession)
	}
	if c.DefaultChannel == "" {
		return fmt.Errorf("SPECKEEP_DEFAULT_CHANNEL must not be empty")
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("SPECKEEP_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
