package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (a trailing "/" enables prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an untouched bucket survives a cleanup pass.
	IdleTTL         time.Duration
	Whitelist       map[string]bool // client IPs that are never limited
	Blacklist       map[string]bool // client IPs that are always refused
	EndpointConfigs []EndpointConfig
	// Now replaces time.Now in tests.
	Now func() time.Time
}

// DefaultConfig is used when NewLimiter is given nil.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	return LoadConfigFrom(os.LookupEnv)
}

// LoadConfigFrom reads RATE_LIMIT_* settings through lookup. Malformed values fall back to
// their defaults.
func LoadConfigFrom(lookup func(string) (string, bool)) *Config {
	env := envReader(lookup)
	if !env.boolean("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	cfg := DefaultConfig()
	cfg.DefaultLimit = env.integer("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = env.duration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = env.duration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.IdleTTL = env.duration("RATE_LIMIT_IDLE_TTL", cfg.IdleTTL)
	cfg.Whitelist = parseIPList(env.str("RATE_LIMIT_WHITELIST", ""))
	cfg.Blacklist = parseIPList(env.str("RATE_LIMIT_BLACKLIST", ""))

	render := env.integer("RATE_LIMIT_RENDER_PER_HOUR", 60)
	generate := env.integer("RATE_LIMIT_GENERATE_PER_HOUR", 120)
	cfg.EndpointConfigs = endpointConfigs(render, generate)
	return cfg
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return endpointConfigs(60, 120)
}

func endpointConfigs(renderPerHour, generatePerHour int) []EndpointConfig {
	return []EndpointConfig{
		// Compiles a document: one latexmk process per request.
		{Path: "/create-resume", Method: "POST", Limit: renderPerHour, Window: time.Hour, Burst: 5},

		// Paid model calls.
		{Path: "/generate-cover-letter", Method: "POST", Limit: generatePerHour, Window: time.Hour, Burst: 10},
		{Path: "/generate-project-description", Method: "POST", Limit: generatePerHour, Window: time.Hour, Burst: 10},
		{Path: "/generate-summary", Method: "POST", Limit: generatePerHour, Window: time.Hour, Burst: 10},

		// Password checks; kept low against guessing.
		{Path: "/register", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/login", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/api-keys", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/api-keys/", Method: "DELETE", Limit: 30, Window: time.Minute, Burst: 10},

		// Everything else uses the default limit; GET /health is unlimited (see MatchEndpoint).
	}
}

type envReader func(string) (string, bool)

func (e envReader) str(key, def string) string {
	if v, ok := e(key); ok && v != "" {
		return v
	}
	return def
}

func (e envReader) integer(key string, def int) int {
	if n, err := strconv.Atoi(e.str(key, "")); err == nil {
		return n
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if b, err := strconv.ParseBool(e.str(key, "")); err == nil {
		return b
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(key, "")); err == nil {
		return d
	}
	return def
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
