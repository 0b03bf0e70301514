package opentoclose

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/opentoclose-go/apierr"
	"github.com/yourorg/opentoclose-go/internal/env"
	"github.com/yourorg/opentoclose-go/rest"
)

// Config controls client construction. Zero values fall back to environment
// variables and library defaults, so Config{} is a valid starting point when
// OPEN_TO_CLOSE_API_KEY is set.
type Config struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"-"`
	TimeoutSeconds    int           `yaml:"timeout_seconds"`
	RetryMax          int           `yaml:"retry_max"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Logger            *slog.Logger  `yaml:"-"`
}

// ConfigFromEnv builds a Config from OPEN_TO_CLOSE_* environment variables.
func ConfigFromEnv() Config {
	return Config{
		APIKey:            os.Getenv(rest.EnvAPIKey),
		BaseURL:           env.Get("OPEN_TO_CLOSE_BASE_URL", rest.DefaultBaseURL),
		Timeout:           time.Duration(env.GetInt("OPEN_TO_CLOSE_TIMEOUT_SECONDS", 0)) * time.Second,
		RetryMax:          env.GetInt("OPEN_TO_CLOSE_RETRY_MAX", 0),
		RequestsPerSecond: env.GetFloat("OPEN_TO_CLOSE_RPS", 0),
	}
}

// LoadConfig reads a YAML config file. Fields absent from the file keep
// their zero value and resolve through the usual defaults.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, apierr.NewConfigurationError(fmt.Sprintf("reading config %s: %v", path, err))
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, apierr.NewConfigurationError(fmt.Sprintf("parsing config %s: %v", path, err))
	}
	return cfg, nil
}

func (c Config) rest() rest.Config {
	timeout := c.Timeout
	if timeout == 0 && c.TimeoutSeconds > 0 {
		timeout = time.Duration(c.TimeoutSeconds) * time.Second
	}
	return rest.Config{
		APIKey:            c.APIKey,
		BaseURL:           c.BaseURL,
		Timeout:           timeout,
		RetryMax:          c.RetryMax,
		RequestsPerSecond: c.RequestsPerSecond,
		Logger:            c.Logger,
	}
}
