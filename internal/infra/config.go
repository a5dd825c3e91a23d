package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is read when SALESBOARD_CONFIG is unset
	DefaultConfigPath = "configs/config.yaml"

	PayPalEnvSandbox = "sandbox"
	PayPalEnvLive    = "live"
)

var validate = validator.New()

// Config holds every setting of the service.
// Values come from the YAML file first, then environment variables override them.
// Provider secrets are optional at load time; handlers fail with ConfigError when they are needed but unset.
type Config struct {
	App struct {
		Name      string `yaml:"name"`
		Port      int    `yaml:"port" validate:"min=1,max=65535"`
		StaticDir string `yaml:"static_dir"`
		PprofAddr string `yaml:"pprof_addr"` // empty disables profiling
	} `yaml:"app"`

	Storefront struct {
		ClientID        string `yaml:"client_id"`
		APIKey          string `yaml:"api_key"`
		WebhookSecret   string `yaml:"webhook_secret"`
		SignatureHeader string `yaml:"signature_header" validate:"required"`
		TokenURL        string `yaml:"token_url" validate:"required,url"`
		APIURL          string `yaml:"api_url" validate:"required,url"`
	} `yaml:"storefront"`

	PayPal struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		WebhookID    string `yaml:"webhook_id"`
		Env          string `yaml:"env" validate:"oneof=sandbox live"`
		BaseURL      string `yaml:"base_url" validate:"omitempty,url"` // overrides the env-derived host
	} `yaml:"paypal"`

	HTTP struct {
		ClientTimeoutSec   int `yaml:"client_timeout_sec" validate:"min=1"`
		ShutdownTimeoutSec int `yaml:"shutdown_timeout_sec" validate:"min=1"`
		KeepAliveSec       int `yaml:"keep_alive_sec" validate:"min=1"`
	} `yaml:"http"`

	Journal struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"journal"`

	Logging struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns a Config populated with defaults
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "salesboard"
	cfg.App.Port = 3000
	cfg.App.StaticDir = "web"
	cfg.Storefront.SignatureHeader = "X-Signature"
	cfg.Storefront.TokenURL = "https://api.storefront.example/oauth/token"
	cfg.Storefront.APIURL = "https://api.storefront.example"
	cfg.PayPal.Env = PayPalEnvSandbox
	cfg.HTTP.ClientTimeoutSec = 10
	cfg.HTTP.ShutdownTimeoutSec = 10
	cfg.HTTP.KeepAliveSec = 25
	cfg.Journal.Enabled = true
	cfg.Journal.Path = "data/salesboard.db"
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig reads path (a missing file means defaults only), applies env overrides and validates.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// env-only deployment
	default:
		return nil, err
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal path is required when journal is enabled")
	}
	return nil
}

// PayPalBaseURL resolves the REST host from the env flag unless overridden
func (c *Config) PayPalBaseURL() string {
	if c.PayPal.BaseURL != "" {
		return strings.TrimRight(c.PayPal.BaseURL, "/")
	}
	if c.PayPal.Env == PayPalEnvLive {
		return "https://api-m.paypal.com"
	}
	return "https://api-m.sandbox.paypal.com"
}

// overrideWithEnv replaces settings with environment variables when present
func overrideWithEnv(cfg *Config) error {
	setString(&cfg.Storefront.ClientID, "STOREFRONT_CLIENT_ID")
	setString(&cfg.Storefront.APIKey, "STOREFRONT_API_KEY")
	setString(&cfg.Storefront.WebhookSecret, "STOREFRONT_WEBHOOK_SECRET")
	setString(&cfg.PayPal.ClientID, "PAYPAL_CLIENT_ID")
	setString(&cfg.PayPal.ClientSecret, "PAYPAL_CLIENT_SECRET")
	setString(&cfg.PayPal.WebhookID, "PAYPAL_WEBHOOK_ID")
	setString(&cfg.Logging.Level, "SALESBOARD_LOG_LEVEL")

	if env := os.Getenv("PAYPAL_ENV"); env != "" {
		cfg.PayPal.Env = strings.ToLower(env)
	}
	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(strings.TrimSpace(port))
		if err != nil {
			return fmt.Errorf("PORT %q is not a number: %w", port, err)
		}
		cfg.App.Port = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
