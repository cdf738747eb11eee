// Package config provides configuration loading and validation for the resumeai service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Supported text-generation providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config represents the service configuration. It can be loaded from a JSON file and
// every field can be overridden from the environment (see ApplyEnv).
type Config struct {
	// Server
	Port        int    `json:"port,omitempty"`         // HTTP listen port
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	LogMode     string `json:"log_mode,omitempty"`     // dev or prod

	// Text generation
	LLMProvider     string `json:"llm_provider,omitempty"`      // gemini or anthropic
	GeminiAPIKey    string `json:"gemini_api_key,omitempty"`    // Gemini API key
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty"` // Anthropic API key
	UseBrowser      bool   `json:"use_browser,omitempty"`       // Render job pages in headless Chrome when static fetch is too thin

	// Document assembly
	Template              string   `json:"template,omitempty"`                // Path to LaTeX template; empty uses the embedded one
	OutputDir             string   `json:"output_dir,omitempty"`              // Working directory for .tex and compiler output
	LatexmkPath           string   `json:"latexmk_path,omitempty"`            // latexmk binary
	CompileTimeout        Duration `json:"compile_timeout,omitempty"`         // Wall-clock bound for one compilation
	MaxConcurrentCompiles int      `json:"max_concurrent_compiles,omitempty"` // Parallel latexmk processes
}

// Duration is a time.Duration that reads and writes JSON as "5s"-style strings.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Port:                  8000,
		LogMode:               "dev",
		LLMProvider:           ProviderGemini,
		OutputDir:             "generated_resumes",
		LatexmkPath:           "latexmk",
		CompileTimeout:        Duration(5 * time.Second),
		MaxConcurrentCompiles: 4,
	}
}

// Load builds the effective configuration: the optional JSON file at path, then
// environment overrides, then defaults for anything still unset. The result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("DATABASE_URL", &c.DatabaseURL)
	str("LOG_MODE", &c.LogMode)
	str("LLM_PROVIDER", &c.LLMProvider)
	str("GEMINI_API_KEY", &c.GeminiAPIKey)
	str("ANTHROPIC_API_KEY", &c.AnthropicAPIKey)
	str("RESUME_TEMPLATE", &c.Template)
	str("RESUME_OUTPUT_DIR", &c.OutputDir)
	str("LATEXMK_PATH", &c.LatexmkPath)

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v, ok := lookup("MAX_CONCURRENT_COMPILES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: invalid MAX_CONCURRENT_COMPILES %q: %w", v, err)
		}
		c.MaxConcurrentCompiles = n
	}
	if v, ok := lookup("COMPILE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config error: invalid COMPILE_TIMEOUT %q: %w", v, err)
		}
		c.CompileTimeout = Duration(d)
	}
	if v, ok := lookup("USE_BROWSER"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config error: invalid USE_BROWSER %q: %w", v, err)
		}
		c.UseBrowser = b
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535, got %d", c.Port)
	}
	switch strings.ToLower(c.LLMProvider) {
	case ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("config error: unknown 'llm_provider' %q", c.LLMProvider)
	}
	switch strings.ToLower(c.LogMode) {
	case "dev", "development", "prod", "production":
	default:
		return fmt.Errorf("config error: unknown 'log_mode' %q", c.LogMode)
	}
	if c.CompileTimeout < 0 {
		return fmt.Errorf("config error: 'compile_timeout' must be positive")
	}
	if c.MaxConcurrentCompiles < 0 {
		return fmt.Errorf("config error: 'max_concurrent_compiles' must be non-negative")
	}

	// Validate file paths exist (if specified)
	if c.Template != "" {
		if _, err := os.Stat(c.Template); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Template)
		}
	}

	return nil
}

// APIKeyFor returns the key configured for the selected provider.
func (c *Config) APIKeyFor() string {
	if strings.EqualFold(c.LLMProvider, ProviderAnthropic) {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LogMode == "" {
		result.LogMode = defaults.LogMode
	}
	if result.LLMProvider == "" {
		result.LLMProvider = defaults.LLMProvider
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.AnthropicAPIKey == "" {
		result.AnthropicAPIKey = defaults.AnthropicAPIKey
	}
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.LatexmkPath == "" {
		result.LatexmkPath = defaults.LatexmkPath
	}

	// Numeric fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.CompileTimeout == 0 {
		result.CompileTimeout = defaults.CompileTimeout
	}
	if result.MaxConcurrentCompiles == 0 {
		result.MaxConcurrentCompiles = defaults.MaxConcurrentCompiles
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}
