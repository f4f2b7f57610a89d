// Package config loads the optional YAML configuration file. Values follow
// the usual precedence: flags override the file, the file overrides
// environment defaults.
package config

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// Config holds everything needed to construct the language model client.
type Config struct {
	Model          string `yaml:"model"`
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// HTTPClient builds the HTTP client the LLM layer should use, carrying the
// configured request timeout.
func (c *Config) HTTPClient() *http.Client {
	return &http.Client{Timeout: time.Duration(c.TimeoutSeconds) * time.Second}
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func setDefaults(cfg *Config) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://generativelanguage.googleapis.com"
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = 180
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Endpoint, validation.Required, is.URL),
		validation.Field(&c.TimeoutSeconds, validation.Min(1), validation.Max(3600)),
	)
}

// Load reads the config file at path, expands environment variables, applies
// defaults and validates the result. A missing file is not an error: the
// defaults and environment carry the whole configuration.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
