package mcpserver

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/erraggy/oasbind/loader"
	"github.com/erraggy/oasbind/pipeline"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Engine limits.
	MaxRefDepth int
	MaxBodySize int64

	// ErrorLimit caps the errors returned by one tool call.
	ErrorLimit int

	// Cache settings.
	CacheEnabled       bool
	CacheMaxSize       int
	CacheFileTTL       time.Duration
	CacheURLTTL        time.Duration
	CacheContentTTL    time.Duration
	CacheSweepInterval time.Duration

	// Input limits.
	MaxInlineSize   int64
	AllowPrivateIPs bool
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from OASBIND_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		MaxRefDepth:        envInt("OASBIND_MAX_REF_DEPTH", loader.DefaultMaxRefDepth),
		MaxBodySize:        envInt64("OASBIND_MAX_BODY_SIZE", pipeline.DefaultMaxBodySize),
		ErrorLimit:         envInt("OASBIND_ERROR_LIMIT", 100),
		CacheEnabled:       envBool("OASBIND_CACHE_ENABLED", true),
		CacheMaxSize:       envInt("OASBIND_CACHE_MAX_SIZE", 10),
		CacheFileTTL:       envDuration("OASBIND_CACHE_FILE_TTL", 15*time.Minute),
		CacheURLTTL:        envDuration("OASBIND_CACHE_URL_TTL", 5*time.Minute),
		CacheContentTTL:    envDuration("OASBIND_CACHE_CONTENT_TTL", 15*time.Minute),
		CacheSweepInterval: envDuration("OASBIND_CACHE_SWEEP_INTERVAL", 60*time.Second),
		MaxInlineSize:      envInt64("OASBIND_MAX_INLINE_SIZE", 10*1024*1024),
		AllowPrivateIPs:    envBool("OASBIND_ALLOW_PRIVATE_IPS", false),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return d
}
