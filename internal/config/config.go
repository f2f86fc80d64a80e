package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file written at the root of a tally data directory.
const FileName = "tally.yaml"

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Record   RecordConfig   `yaml:"record"`
	Policy   PolicyConfig   `yaml:"policy"`
	Git      GitConfig      `yaml:"git"`
}

// DatabaseConfig locates the SQLite database, relative to the data directory.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RecordConfig controls scheduled balance-history snapshots.
type RecordConfig struct {
	Cron string `yaml:"cron"` // standard 5-field cron expression
}

// PolicyConfig holds formula save-time policy switches.
type PolicyConfig struct {
	// StrictReferences rejects formulas with dangling term references at
	// save time. Off, dangling terms are accepted and evaluate to zero.
	StrictReferences bool `yaml:"strict_references"`
}

// GitConfig controls git backup of exported data.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a tally.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "tally.db"
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "tally.db",
		},
		Record: RecordConfig{
			Cron: "0 6 * * *", // daily at 06:00
		},
		Policy: PolicyConfig{
			StrictReferences: false,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Tally",
			AuthorEmail: "tally@localhost",
		},
	}
}

// DatabasePath resolves the configured database path against the data
// directory holding tally.yaml.
func (c *Config) DatabasePath(dataDir string) string {
	if filepath.IsAbs(c.Database.Path) {
		return c.Database.Path
	}
	return filepath.Join(dataDir, c.Database.Path)
}
