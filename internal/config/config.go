// Package config loads the gateway's process configuration from the
// environment, following the same .env-then-environment convention as the
// teacher's cmd/test entrypoint (joho/godotenv/autoload).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	_ "github.com/joho/godotenv/autoload"

	"github.com/claudegateway/openai-bridge/common/helper"
)

// Config is the gateway's full process configuration, sourced once at
// startup and passed by value to every component that needs it.
type Config struct {
	// Listen is the address the HTTP server binds to, e.g. ":8080".
	Listen string

	// LogLevel is a zapcore level string: debug, info, warn, error.
	LogLevel string
	// LogJSON selects the production JSON encoder over the console one.
	LogJSON bool

	// APIKey, when non-empty, is the bearer token the API-Key Guard
	// requires on every request except /health and /v1/auth/status.
	APIKey string

	// ClaudeBinaryPath overrides discovery of the claude CLI binary. Empty
	// means fall back to PATH and well-known install locations.
	ClaudeBinaryPath string
	// ClaudeTimeout bounds a single completion's wall-clock time.
	ClaudeTimeout time.Duration

	// SessionTTL is how long an idle session survives before expiry.
	SessionTTL time.Duration
	// SessionCleanupInterval is how often the reaper sweeps expired sessions.
	SessionCleanupInterval time.Duration
	// SessionMaxTurns is the default per-session turn cap (passed to the
	// Claude CLI as --max-turns), overridable per session up to this ceiling.
	SessionMaxTurns int

	// AllowedOrigins is the CORS allow-list; "*" allows any origin.
	AllowedOrigins []string
}

// Default values, used when the corresponding environment variable is unset.
const (
	defaultListen                 = ":8080"
	defaultLogLevel               = "info"
	defaultClaudeTimeout          = 120 * time.Second
	defaultSessionTTL             = time.Hour
	defaultSessionCleanupInterval = 5 * time.Minute
	defaultSessionMaxTurns        = 50
)

// Load builds a Config from the environment. It never panics: malformed
// numeric or duration values fall back to their default and are not
// reported as errors, mirroring the teacher's tolerant env-parsing style in
// common/client/init.go (log and continue, don't crash on a bad override).
func Load() (Config, error) {
	cfg := Config{
		Listen:                 getEnv("GATEWAY_LISTEN", defaultListen),
		LogLevel:               strings.ToLower(getEnv("GATEWAY_LOG_LEVEL", defaultLogLevel)),
		LogJSON:                getBool("GATEWAY_LOG_JSON", false),
		APIKey:                 os.Getenv("GATEWAY_API_KEY"),
		ClaudeBinaryPath:       os.Getenv("CLAUDE_BINARY_PATH"),
		ClaudeTimeout:          getDuration("CLAUDE_TIMEOUT", defaultClaudeTimeout),
		SessionTTL:             getDuration("SESSION_TTL", defaultSessionTTL),
		SessionCleanupInterval: getDuration("SESSION_CLEANUP_INTERVAL", defaultSessionCleanupInterval),
		SessionMaxTurns:        getInt("SESSION_MAX_TURNS", defaultSessionMaxTurns),
		AllowedOrigins:         getList("GATEWAY_ALLOWED_ORIGINS", []string{"*"}),
	}

	if cfg.SessionMaxTurns <= 0 {
		return Config{}, errors.Errorf("SESSION_MAX_TURNS must be positive, got %d", cfg.SessionMaxTurns)
	}
	if cfg.ClaudeTimeout <= 0 {
		return Config{}, errors.Errorf("CLAUDE_TIMEOUT must be positive, got %s", cfg.ClaudeTimeout)
	}

	return cfg, nil
}

// Redacted returns a copy of c with APIKey (and any other credential-shaped
// field added in the future) masked via helper.MaskSecret, safe to pass to
// the logger at startup.
func (c Config) Redacted() Config {
	c.APIKey = helper.MaskSecret(c.APIKey)
	return c
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
