// Package config provides application configuration with multi-source priority.
//
// Sources (highest to lowest):
//  1. Environment variables (GEMINI_API_KEY plus HERALD_* overrides)
//  2. Config file (~/.herald/config.yaml or ./config.yaml)
//  3. Defaults
//
// The provider credential has exactly one canonical source, the
// GEMINI_API_KEY environment variable, and exactly one validated field,
// Config.APIKey. A missing or empty credential fails Load before any
// entry surface starts.
//
// Error handling uses sentinel errors wrapped with fmt.Errorf("%w: ...")
// so callers can match with errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the provider credential is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidBaseURL indicates the provider endpoint URL is invalid.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidMaxTurns indicates the tool-loop turn limit is out of range.
	ErrInvalidMaxTurns = errors.New("invalid max turns")

	// ErrInvalidSearXNGURL indicates the web-search backend URL is invalid.
	ErrInvalidSearXNGURL = errors.New("invalid searxng base URL")

	// ErrInvalidAddr indicates the serve listen address is invalid.
	ErrInvalidAddr = errors.New("invalid listen address")
)

// DefaultBaseURL is the Gemini OpenAI-compatible chat completions endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// TracingConfig holds OpenTelemetry trace export settings.
type TracingConfig struct {
	// Enabled turns per-invocation tracing on. Default: false.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// Endpoint is the OTLP HTTP collector address (host:port).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// ServiceName tags exported spans.
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	// Environment tags exported spans (e.g., "dev", "prod").
	Environment string `mapstructure:"environment" json:"environment"`
}

// SearXNGConfig holds the web-search backend used by the news agent's tools.
type SearXNGConfig struct {
	// BaseURL is the SearXNG instance URL (e.g., http://localhost:8888).
	BaseURL string `mapstructure:"base_url" json:"base_url"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON; update it when
// adding new secrets.
type Config struct {
	// Provider credential and endpoint
	APIKey  string `mapstructure:"api_key" json:"api_key"` // SENSITIVE: masked in MarshalJSON
	BaseURL string `mapstructure:"base_url" json:"base_url"`

	// Model configuration
	ModelName   string  `mapstructure:"model_name" json:"model_name"` // e.g., "gemini-2.5-flash"
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`
	MaxTurns    int     `mapstructure:"max_turns" json:"max_turns"` // tool-call loop bound

	// Serve mode (HTTP chat surface)
	Addr        string   `mapstructure:"addr" json:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Nested sections
	SearXNG SearXNGConfig `mapstructure:"searxng" json:"searxng"`
	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`
}

// Load loads and validates configuration.
// Priority: environment variables > config file > defaults.
func Load() (*Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".herald")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Fail fast: no entry surface becomes reachable with a bad config.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("max_turns", 5)

	v.SetDefault("addr", "localhost:8080")
	v.SetDefault("cors_origins", []string{"http://localhost:4200"})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", 60)

	v.SetDefault("searxng.base_url", "http://localhost:8888")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "herald")
	v.SetDefault("tracing.environment", "dev")
}

// bindEnvVariables binds environment variable overrides explicitly.
// GEMINI_API_KEY is the single canonical credential variable.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("api_key", "GEMINI_API_KEY")
	mustBind("base_url", "HERALD_BASE_URL")
	mustBind("model_name", "HERALD_MODEL_NAME")
	mustBind("max_turns", "HERALD_MAX_TURNS")

	mustBind("addr", "HERALD_ADDR")
	mustBind("cors_origins", "HERALD_CORS_ORIGINS")
	mustBind("trust_proxy", "HERALD_TRUST_PROXY")
	mustBind("rate_burst", "HERALD_RATE_BURST")

	mustBind("searxng.base_url", "HERALD_SEARXNG_URL")

	mustBind("tracing.enabled", "HERALD_TRACING")
	mustBind("tracing.endpoint", "HERALD_TRACING_ENDPOINT")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Short secrets are fully
// masked; longer ones keep two characters on each end for debugging.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.APIKey = maskSecret(a.APIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
