// Package config holds the routinectl client configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Lllllllleong/routinesharing/internal/identity"
	"github.com/Lllllllleong/routinesharing/internal/routines"
)

const appName = "routinectl"

type Config struct {
	ProjectID    string `yaml:"project_id"`
	Collection   string `yaml:"collection"`
	ExportBucket string `yaml:"export_bucket,omitempty"`
	// StatePath is the SQLite file holding the identity, like ledger and
	// pending draft of this device.
	StatePath   string `yaml:"state_path"`
	AuthTimeout string `yaml:"auth_timeout"`
	Sort        string `yaml:"sort"`
}

// DefaultConfigPath is $XDG_CONFIG_HOME/routinectl/config.yaml or the
// platform equivalent.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(dir, appName)
}

func DefaultConfig() *Config {
	return &Config{
		Collection:  "routines",
		StatePath:   filepath.Join(configDir(), "state.db"),
		AuthTimeout: identity.DefaultTimeout.String(),
		Sort:        string(routines.SortRecent),
	}
}

// Load reads path over the defaults. A missing file is not an error.
// ROUTINECTL_* variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ROUTINECTL_PROJECT_ID"); v != "" {
		c.ProjectID = v
	}
	if v := os.Getenv("ROUTINECTL_COLLECTION"); v != "" {
		c.Collection = v
	}
	if v := os.Getenv("ROUTINECTL_EXPORT_BUCKET"); v != "" {
		c.ExportBucket = v
	}
	if v := os.Getenv("ROUTINECTL_STATE"); v != "" {
		c.StatePath = v
	}
	if v := os.Getenv("ROUTINECTL_AUTH_TIMEOUT"); v != "" {
		c.AuthTimeout = v
	}
}

// GetAuthTimeout falls back to the default handshake timeout when the
// configured value does not parse.
func (c *Config) GetAuthTimeout() time.Duration {
	d, err := time.ParseDuration(c.AuthTimeout)
	if err != nil || d <= 0 {
		return identity.DefaultTimeout
	}
	return d
}

func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("project_id is required (set it in %s or ROUTINECTL_PROJECT_ID)", DefaultConfigPath())
	}
	if _, err := routines.ParseSortOrder(c.Sort); err != nil {
		return err
	}
	return nil
}
