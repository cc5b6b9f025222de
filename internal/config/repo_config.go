// Package config provides repository configuration management,
// including reading recommit configuration from the repository's .git directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RepoConfig represents the repository configuration
type RepoConfig struct {
	// TrailerKey overrides the reserved trailer key carrying the
	// rewrite-group id.
	TrailerKey *string `json:"trailerKey,omitempty"`

	// DefaultRemote overrides the remote used for sync, default "origin".
	DefaultRemote *string `json:"defaultRemote,omitempty"`

	// MaxBlobSize caps the content size accepted per file, in bytes.
	MaxBlobSize *int64 `json:"maxBlobSize,omitempty"`
}

// GetRepoConfig reads the repository configuration
func GetRepoConfig(repoRoot string) (*RepoConfig, error) {
	configPath := filepath.Join(repoRoot, ".git", ".recommit_config")

	data, err := os.ReadFile(configPath)
	if err != nil {
		// Config doesn't exist - return default
		return &RepoConfig{}, nil
	}

	var config RepoConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse repo config: %w", err)
	}

	return &config, nil
}

// GetTrailerKey returns the configured trailer key, or "" for the default
func (c *RepoConfig) GetTrailerKey() string {
	if c.TrailerKey != nil {
		return *c.TrailerKey
	}
	return ""
}

// GetDefaultRemote returns the configured remote, or "origin"
func (c *RepoConfig) GetDefaultRemote() string {
	if c.DefaultRemote != nil && *c.DefaultRemote != "" {
		return *c.DefaultRemote
	}
	return "origin"
}

// GetMaxBlobSize returns the configured blob cap, or 0 for the default
func (c *RepoConfig) GetMaxBlobSize() int64 {
	if c.MaxBlobSize != nil && *c.MaxBlobSize > 0 {
		return *c.MaxBlobSize
	}
	return 0
}
