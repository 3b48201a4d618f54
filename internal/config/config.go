// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables with the HYBRIDCHAT_ prefix
//  2. Config file (~/.hybridchat/config.yaml)
//  3. Defaults
//
// Sensitive fields (the search API key) are masked in MarshalJSON so a
// dumped config never leaks credentials.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel errors returned by Validate. Check with errors.Is().
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidSearchURL indicates the search provider base URL is invalid.
	ErrInvalidSearchURL = errors.New("invalid search base URL")

	// ErrInvalidFileContextChars indicates the file context budget is out of range.
	ErrInvalidFileContextChars = errors.New("invalid max file context chars")

	// ErrInvalidExtractTimeout indicates the extraction timeout is out of range.
	ErrInvalidExtractTimeout = errors.New("invalid extract timeout")
)

const (
	// configDir is the directory under $HOME holding config and state.
	configDir = ".hybridchat"

	// configName and configType identify the config file (config.yaml).
	configName = "config"
	configType = "yaml"

	// envPrefix is the prefix for environment variable overrides,
	// e.g. HYBRIDCHAT_MODEL_NAME, HYBRIDCHAT_SEARCH_API_KEY.
	envPrefix = "HYBRIDCHAT"

	// DefaultModelName is the local chat model served by Ollama.
	DefaultModelName = "llama3.2"

	// DefaultOllamaHost is the default Ollama server address.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultMaxFileContextChars bounds how much extracted file text is
	// injected into one request. Truncation takes the prefix.
	DefaultMaxFileContextChars = 6000

	// DefaultExtractTimeoutSec bounds a single file extraction.
	DefaultExtractTimeoutSec = 30

	// MaxAllowedFileContextChars is the absolute ceiling for the context budget.
	MaxAllowedFileContextChars = 200_000
)

// Config stores application configuration.
// SECURITY: SearchAPIKey is masked in MarshalJSON.
type Config struct {
	// Model configuration
	ModelName  string `mapstructure:"model_name" json:"model_name"`
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Web search provider
	SearchBaseURL string `mapstructure:"search_base_url" json:"search_base_url"`
	SearchAPIKey  string `mapstructure:"search_api_key" json:"search_api_key"` // SENSITIVE: masked in MarshalJSON

	// Context composition
	MaxFileContextChars int `mapstructure:"max_file_context_chars" json:"max_file_context_chars"`

	// File extraction
	ExtractTimeoutSec int `mapstructure:"extract_timeout_sec" json:"extract_timeout_sec"`

	// Storage: directory holding the durable session snapshot.
	// Empty means ~/.hybridchat.
	DataDir string `mapstructure:"data_dir" json:"data_dir"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load reads configuration from file, environment, and defaults.
// A missing config file is not an error; defaults apply.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("ollama_host", DefaultOllamaHost)
	v.SetDefault("search_base_url", "")
	v.SetDefault("search_api_key", "")
	v.SetDefault("max_file_context_chars", DefaultMaxFileContextChars)
	v.SetDefault("extract_timeout_sec", DefaultExtractTimeoutSec)
	v.SetDefault("data_dir", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Dir returns the config/state directory (~/.hybridchat), creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, configDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return dir, nil
}

// ResolveDataDir returns the effective snapshot directory for this config.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		if err := os.MkdirAll(c.DataDir, 0o750); err != nil {
			return "", fmt.Errorf("creating data directory: %w", err)
		}
		return c.DataDir, nil
	}
	return Dir()
}

// Validate checks configuration values for sanity.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if strings.ContainsAny(c.ModelName, " \t\n") {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidModelName, c.ModelName)
	}

	if !strings.HasPrefix(c.OllamaHost, "http://") && !strings.HasPrefix(c.OllamaHost, "https://") {
		return fmt.Errorf("%w: %q must be an http(s) URL", ErrInvalidOllamaHost, c.OllamaHost)
	}

	// Empty base URL is allowed: web search stays configured-off and every
	// search degrades with a missing-credential style failure.
	if c.SearchBaseURL != "" &&
		!strings.HasPrefix(c.SearchBaseURL, "http://") &&
		!strings.HasPrefix(c.SearchBaseURL, "https://") {
		return fmt.Errorf("%w: %q must be an http(s) URL", ErrInvalidSearchURL, c.SearchBaseURL)
	}

	if c.MaxFileContextChars <= 0 || c.MaxFileContextChars > MaxAllowedFileContextChars {
		return fmt.Errorf("%w: %d not in (0, %d]",
			ErrInvalidFileContextChars, c.MaxFileContextChars, MaxAllowedFileContextChars)
	}

	if c.ExtractTimeoutSec <= 0 || c.ExtractTimeoutSec > 600 {
		return fmt.Errorf("%w: %d not in (0, 600]", ErrInvalidExtractTimeout, c.ExtractTimeoutSec)
	}

	return nil
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.SearchAPIKey = maskSecret(a.SearchAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// maskSecret hides all but a short prefix of a secret value.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
