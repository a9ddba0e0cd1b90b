// ABOUTME: Configuration for Charm KV backend connection
// ABOUTME: Derived from the sync section of the podium config

package charm

import (
	"time"

	"github.com/charmbracelet/charm/kv"

	"github.com/harperreed/podium/config"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName is the application name for Charm KV database.
	AppName = "podium"
)

// Config holds charm connection settings.
type Config struct {
	// Host is the charm server hostname (default: charm.2389.dev)
	Host string

	// AutoSync pushes every write to the server immediately
	AutoSync bool

	// StaleThreshold is the duration before data is considered stale and needs a sync
	StaleThreshold time.Duration
}

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultCharmHost,
		AutoSync:       true,
		StaleThreshold: kv.DefaultStaleThreshold,
	}
}

// ConfigFrom builds charm settings from the application sync config.
func ConfigFrom(s config.Sync) *Config {
	cfg := DefaultConfig()
	if s.Host != "" {
		cfg.Host = s.Host
	}
	cfg.AutoSync = s.Enabled
	return cfg
}
