// ABOUTME: Application configuration loaded from XDG JSON, .env files, and PODIUM_* env vars
// ABOUTME: Later sources override earlier ones; missing files fall back to defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// AppName names the XDG directories.
	AppName = "podium"

	// ConfigFileName is the JSON config file inside the XDG config dir.
	ConfigFileName = "config.json"

	DefaultTimeout       = 15 * time.Second
	DefaultRetryAttempts = 3
	DefaultLogLevel      = "info"
)

// API holds back-office connection settings.
type API struct {
	BaseURL       string        `json:"base_url" env:"PODIUM_API_BASE_URL"`
	Token         string        `json:"token,omitempty" env:"PODIUM_API_TOKEN"`
	ClientID      string        `json:"client_id,omitempty" env:"PODIUM_OAUTH_CLIENT_ID"`
	ClientSecret  string        `json:"client_secret,omitempty" env:"PODIUM_OAUTH_CLIENT_SECRET"`
	TokenURL      string        `json:"token_url,omitempty" env:"PODIUM_OAUTH_TOKEN_URL"`
	Scopes        []string      `json:"scopes,omitempty" env:"PODIUM_OAUTH_SCOPES" envSeparator:","`
	Timeout       time.Duration `json:"timeout,omitempty" env:"PODIUM_API_TIMEOUT"`
	RetryAttempts int           `json:"retry_attempts,omitempty" env:"PODIUM_API_RETRY_ATTEMPTS"`
}

// ClientCredentials reports whether the OAuth client-credentials flow is configured.
func (a API) ClientCredentials() bool {
	return a.ClientID != "" && a.ClientSecret != "" && a.TokenURL != ""
}

// Sync holds charm cloud sync settings.
type Sync struct {
	Enabled bool   `json:"enabled" env:"PODIUM_SYNC_ENABLED"`
	Host    string `json:"host,omitempty" env:"PODIUM_CHARM_HOST"`
}

// Config is the full application configuration.
type Config struct {
	API      API    `json:"api"`
	LogLevel string `json:"log_level,omitempty" env:"PODIUM_LOG_LEVEL"`
	DBPath   string `json:"db_path,omitempty" env:"PODIUM_DB_PATH"`
	Sync     Sync   `json:"sync"`
}

// Default returns a config with every default applied.
func Default() *Config {
	return &Config{
		API: API{
			Timeout:       DefaultTimeout,
			RetryAttempts: DefaultRetryAttempts,
		},
		LogLevel: DefaultLogLevel,
		DBPath:   DefaultDBPath(),
	}
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFileName)
}

// DefaultDBPath returns the XDG data location of the local database.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, AppName, "podium.db")
}

// LogPath returns the XDG state location of the log file used while the
// terminal UI owns the screen.
func LogPath() string {
	return filepath.Join(xdg.StateHome, AppName, "podium.log")
}

// Load reads the default config file, a .env file in the working directory
// if present, and the environment.
func Load() (*Config, error) {
	return LoadFrom(Path(), ".env")
}

// LoadFrom reads config from the given JSON and dotenv paths. Either may be
// missing.
func LoadFrom(path, dotenv string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if dotenv != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.Timeout <= 0 {
		c.API.Timeout = DefaultTimeout
	}
	if c.API.RetryAttempts < 0 {
		c.API.RetryAttempts = 0
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath()
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
}

// Validate checks the settings needed to talk to the back office.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api base URL is not set (config api.base_url or PODIUM_API_BASE_URL)")
	}
	if (c.API.ClientID != "" || c.API.ClientSecret != "") && !c.API.ClientCredentials() {
		return errors.New("oauth client credentials need client_id, client_secret, and token_url")
	}
	return nil
}

// Save writes the config to path with owner-only permissions.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
