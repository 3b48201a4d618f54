package config

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		ModelName:           DefaultModelName,
		OllamaHost:          DefaultOllamaHost,
		SearchBaseURL:       "http://localhost:8888",
		SearchAPIKey:        "secret-key-12345",
		MaxFileContextChars: DefaultMaxFileContextChars,
		ExtractTimeoutSec:   DefaultExtractTimeoutSec,
		LogLevel:            "info",
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.ModelName = "  " },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "model name with whitespace",
			mutate:  func(c *Config) { c.ModelName = "llama 3" },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "ollama host without scheme",
			mutate:  func(c *Config) { c.OllamaHost = "localhost:11434" },
			wantErr: ErrInvalidOllamaHost,
		},
		{
			name:   "empty search URL allowed",
			mutate: func(c *Config) { c.SearchBaseURL = "" },
		},
		{
			name:    "search URL without scheme",
			mutate:  func(c *Config) { c.SearchBaseURL = "searx.example.com" },
			wantErr: ErrInvalidSearchURL,
		},
		{
			name:    "zero file context budget",
			mutate:  func(c *Config) { c.MaxFileContextChars = 0 },
			wantErr: ErrInvalidFileContextChars,
		},
		{
			name:    "oversized file context budget",
			mutate:  func(c *Config) { c.MaxFileContextChars = MaxAllowedFileContextChars + 1 },
			wantErr: ErrInvalidFileContextChars,
		},
		{
			name:    "negative extract timeout",
			mutate:  func(c *Config) { c.ExtractTimeoutSec = -1 },
			wantErr: ErrInvalidExtractTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NilConfig(t *testing.T) {
	t.Parallel()

	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Fatalf("Validate() on nil = %v, want ErrConfigNil", err)
	}
}

func TestMarshalJSON_MasksAPIKey(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	s := string(data)
	if strings.Contains(s, "secret-key-12345") {
		t.Errorf("marshaled config leaks API key: %s", s)
	}
	if !strings.Contains(s, "secr****") {
		t.Errorf("marshaled config missing masked key: %s", s)
	}
}

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"ab", "****"},
		{"abcd", "****"},
		{"abcdefgh", "abcd****"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
