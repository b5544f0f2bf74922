// Package config loads and validates the plugin's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"wondoner-github/pkg/github"
	"wondoner-github/pkg/sync"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5m"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config represents the wondoner-github configuration
type Config struct {
	GitHub GitHubConfig `yaml:"github"`
	Sync   SyncConfig   `yaml:"sync"`
}

// GitHubConfig represents GitHub-specific configuration
type GitHubConfig struct {
	// Token is the personal access token. GITHUB_TOKEN in the
	// environment takes precedence.
	Token string `yaml:"token,omitempty"`

	// Repositories is the list of owner/name pairs to synchronize
	Repositories []string `yaml:"repositories"`
}

// SyncConfig tunes the sync engine
type SyncConfig struct {
	// PollInterval is how often the host should trigger sync cycles
	PollInterval Duration `yaml:"poll_interval,omitempty"`

	// ConflictStrategy is one of surface, remote-wins, local-wins, merge
	ConflictStrategy string `yaml:"conflict_strategy,omitempty"`

	// Concurrency caps how many repository cycles run at once
	Concurrency int `yaml:"concurrency,omitempty"`

	// CycleTimeout is the wall-clock budget per repository cycle
	CycleTimeout Duration `yaml:"cycle_timeout,omitempty"`

	// DatabasePath is where the reference task store keeps its data.
	// Defaults to a file next to the config.
	DatabasePath string `yaml:"database_path,omitempty"`
}

// LoadConfig loads configuration from the default location
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadConfigFromPath(configPath)
}

// LoadConfigFromPath loads configuration from a specific path
func LoadConfigFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil // Return empty config if file doesn't exist
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfigToPath saves configuration to a specific path
func (c *Config) SaveConfigToPath(path string) error {
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path, honoring
// the WONDONER_GITHUB_CONFIG override
func GetConfigPath() (string, error) {
	if path := os.Getenv("WONDONER_GITHUB_CONFIG"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".wondoner", "github.yaml"), nil
}

// DefaultDatabasePath returns the task database location for a config
// file path
func DefaultDatabasePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "tasks.db")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.GitHub.Repositories) == 0 {
		return fmt.Errorf("at least one repository must be configured under github.repositories")
	}

	seen := make(map[string]bool)
	for i, repo := range c.GitHub.Repositories {
		ref, err := github.ParseRepoRef(repo)
		if err != nil {
			return fmt.Errorf("github.repositories[%d]: %w", i, err)
		}
		if seen[ref.String()] {
			return fmt.Errorf("github.repositories[%d]: duplicate repository %s", i, ref)
		}
		seen[ref.String()] = true
	}

	if _, err := sync.ResolverForStrategy(c.Sync.ConflictStrategy); err != nil {
		return fmt.Errorf("sync.conflict_strategy: %w", err)
	}

	if c.Sync.Concurrency < 0 {
		return fmt.Errorf("sync.concurrency cannot be negative")
	}

	return nil
}

// Repos returns the configured repositories as parsed references.
// Call Validate first.
func (c *Config) Repos() ([]github.RepoRef, error) {
	refs := make([]github.RepoRef, 0, len(c.GitHub.Repositories))
	for _, repo := range c.GitHub.Repositories {
		ref, err := github.ParseRepoRef(repo)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
