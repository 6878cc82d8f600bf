package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultBranch is the implicit root branch every database starts with.
const DefaultBranch = "main"

// Config represents the flat pggit configuration
type Config struct {
	Version       string `json:"version"`
	Author        string `json:"author"`                   // attribution for commits and ledger entries
	DefaultBranch string `json:"default_branch,omitempty"` // parent used when none is given
}

// LoadConfig reads .pggit/config.json from the specified directory.
// Resolution order: cwd only (no home fallback).
// Returns error if no config found - caller should handle accordingly.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ".pggit", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = DefaultBranch
	}

	return &cfg, nil
}

// SaveConfig writes config.json to directory
func SaveConfig(dir string, cfg *Config) error {
	pggitDir := filepath.Join(dir, ".pggit")
	if err := os.MkdirAll(pggitDir, 0755); err != nil {
		return fmt.Errorf("failed to create .pggit dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(pggitDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ResolveAuthor returns the configured author, falling back to the
// PGGIT_AUTHOR environment variable and then the OS username.
func ResolveAuthor(cfg *Config) string {
	if cfg != nil && cfg.Author != "" {
		return cfg.Author
	}
	if author := os.Getenv("PGGIT_AUTHOR"); author != "" {
		return author
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}
