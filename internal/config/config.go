// Package config loads the server's tunables once at startup into a
// single immutable Config value. Environment variables take precedence
// over an optional config.ini file, which in turn takes precedence over
// built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Config holds every tunable the server reads, loaded once and treated
// as read-only for the rest of the process's life.
type Config struct {
	Port        string
	Environment string
	CORSOrigins []string

	Storage struct {
		Path string
	}

	Pow struct {
		Enabled    bool
		Difficulty int
		TTLSeconds int
	}

	RateLimit struct {
		Enabled          bool
		Capacity         int
		RefillPerMinute  int
	}

	Paste struct {
		MaxSizeBytes         int
		IDLength             int
		MaxExpirationSeconds int64
	}

	Chat struct {
		MaxMessagesPerPaste int
		MaxMessageSizeBytes int
	}

	DeletionToken struct {
		Pepper []byte
	}

	ReaperIntervalSeconds int
}

// sentinelPepper is the well-known placeholder that must never be used
// outside development; its presence in production aborts startup.
const sentinelPepper = "change-me"

// Load builds a Config from defaults, an optional INI file, and then
// environment variables, in that order of increasing precedence. It
// returns an error if the resulting configuration is not safe to serve
// (most importantly: a missing or sentinel pepper outside development).
func Load(iniPath string) (*Config, error) {
	cfg := defaultConfig()

	if iniPath != "" {
		if _, err := os.Stat(iniPath); err == nil {
			if err := cfg.loadFromINI(iniPath); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", iniPath, err)
			}
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{
		Port:        "8080",
		Environment: "development",
		CORSOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		},
		ReaperIntervalSeconds: 3600,
	}
	cfg.Storage.Path = "./zkpaste.db"
	cfg.Pow.Enabled = true
	cfg.Pow.Difficulty = 10
	cfg.Pow.TTLSeconds = 180
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Capacity = 30
	cfg.RateLimit.RefillPerMinute = 30
	cfg.Paste.MaxSizeBytes = 1_048_576
	cfg.Paste.IDLength = 10
	cfg.Paste.MaxExpirationSeconds = 2_592_000
	cfg.Chat.MaxMessagesPerPaste = 50
	cfg.Chat.MaxMessageSizeBytes = 16_384
	return cfg
}

// loadFromINI overlays an optional [pow]/[rateLimit]/[paste]/[chat]/
// [storage] config file onto the defaults, mirroring the
// section-per-concern layout FlashPaper's config loader uses.
func (c *Config) loadFromINI(path string) error {
	f, err := ini.Load(path)
	if err != nil {
		return err
	}

	if sec, err := f.GetSection("main"); err == nil {
		c.Port = sec.Key("port").MustString(c.Port)
		c.Environment = sec.Key("environment").MustString(c.Environment)
		if origins := sec.Key("corsOrigins").MustString(""); origins != "" {
			c.CORSOrigins = splitAndTrim(origins)
		}
	}

	if sec, err := f.GetSection("storage"); err == nil {
		c.Storage.Path = sec.Key("path").MustString(c.Storage.Path)
	}

	if sec, err := f.GetSection("pow"); err == nil {
		c.Pow.Enabled = sec.Key("enabled").MustBool(c.Pow.Enabled)
		c.Pow.Difficulty = sec.Key("difficulty").MustInt(c.Pow.Difficulty)
		c.Pow.TTLSeconds = sec.Key("ttlSeconds").MustInt(c.Pow.TTLSeconds)
	}

	if sec, err := f.GetSection("rateLimit"); err == nil {
		c.RateLimit.Enabled = sec.Key("enabled").MustBool(c.RateLimit.Enabled)
		c.RateLimit.Capacity = sec.Key("capacity").MustInt(c.RateLimit.Capacity)
		c.RateLimit.RefillPerMinute = sec.Key("refillPerMinute").MustInt(c.RateLimit.RefillPerMinute)
	}

	if sec, err := f.GetSection("paste"); err == nil {
		c.Paste.MaxSizeBytes = sec.Key("maxSizeBytes").MustInt(c.Paste.MaxSizeBytes)
		c.Paste.IDLength = sec.Key("idLength").MustInt(c.Paste.IDLength)
		c.Paste.MaxExpirationSeconds = sec.Key("maxExpirationSeconds").MustInt64(c.Paste.MaxExpirationSeconds)
	}

	if sec, err := f.GetSection("chat"); err == nil {
		c.Chat.MaxMessagesPerPaste = sec.Key("maxMessagesPerPaste").MustInt(c.Chat.MaxMessagesPerPaste)
		c.Chat.MaxMessageSizeBytes = sec.Key("maxMessageSizeBytes").MustInt(c.Chat.MaxMessageSizeBytes)
	}

	return nil
}

// loadFromEnv overrides configuration with environment variables; this
// is the layer a deployment is expected to actually use (see
// SPEC_FULL.md's "environment variables take precedence" rule).
func (c *Config) loadFromEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitAndTrim(origins)
	}

	c.Storage.Path = getEnv("STORAGE_PATH", c.Storage.Path)

	c.Pow.Enabled = getEnvAsBool("POW_ENABLED", c.Pow.Enabled)
	c.Pow.Difficulty = getEnvAsInt("POW_DIFFICULTY", c.Pow.Difficulty)
	c.Pow.TTLSeconds = getEnvAsInt("POW_TTL_SECONDS", c.Pow.TTLSeconds)

	c.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.Capacity = getEnvAsInt("RATE_LIMIT_CAPACITY", c.RateLimit.Capacity)
	c.RateLimit.RefillPerMinute = getEnvAsInt("RATE_LIMIT_REFILL_PER_MINUTE", c.RateLimit.RefillPerMinute)

	c.Paste.MaxSizeBytes = getEnvAsInt("PASTE_MAX_SIZE_BYTES", c.Paste.MaxSizeBytes)
	c.Paste.IDLength = getEnvAsInt("PASTE_ID_LENGTH", c.Paste.IDLength)
	c.Paste.MaxExpirationSeconds = getEnvAsInt64("PASTE_MAX_EXPIRATION_SECONDS", c.Paste.MaxExpirationSeconds)

	c.Chat.MaxMessagesPerPaste = getEnvAsInt("CHAT_MAX_MESSAGES_PER_PASTE", c.Chat.MaxMessagesPerPaste)
	c.Chat.MaxMessageSizeBytes = getEnvAsInt("CHAT_MAX_MESSAGE_SIZE_BYTES", c.Chat.MaxMessageSizeBytes)

	c.ReaperIntervalSeconds = getEnvAsInt("REAPER_INTERVAL_SECONDS", c.ReaperIntervalSeconds)

	if v := os.Getenv("DELETION_TOKEN_PEPPER"); v != "" {
		c.DeletionToken.Pepper = []byte(v)
	}
}

// validate enforces that a missing, empty, or sentinel pepper aborts
// startup unless running in development mode.
func (c *Config) validate() error {
	if c.IsDevelopment() {
		if len(c.DeletionToken.Pepper) == 0 {
			c.DeletionToken.Pepper = []byte(sentinelPepper)
		}
		return nil
	}

	if len(c.DeletionToken.Pepper) == 0 {
		return fmt.Errorf("deletionToken.pepper is required outside development mode")
	}
	if string(c.DeletionToken.Pepper) == sentinelPepper {
		return fmt.Errorf("deletionToken.pepper must not be the %q sentinel outside development mode", sentinelPepper)
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
