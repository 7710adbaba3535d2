// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for offchat.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/offchat-tui/internal/model"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete offchat configuration.
type Config struct {
	// DefaultModel is the catalog ID of the preselected model
	DefaultModel string `toml:"default_model"`

	// Engine configuration
	Engine EngineConfig `toml:"engine"`

	// Storage configuration
	Storage StorageConfig `toml:"storage"`

	// Chat configuration
	Chat ChatConfig `toml:"chat"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Log configuration
	Log LogConfig `toml:"log"`
}

// EngineConfig contains inference daemon configuration.
type EngineConfig struct {
	// BaseURL is the URL of the local inference daemon
	BaseURL string `toml:"base_url"`
	// APIKey is an optional bearer token for the daemon
	APIKey string `toml:"api_key"`
	// TimeoutSecs is the request timeout for non-streaming calls.
	// Streaming downloads and inference are not bounded by this.
	TimeoutSecs int `toml:"timeout_secs"`
}

// StorageConfig contains chat persistence configuration.
type StorageConfig struct {
	// Dir is the directory holding persisted data (empty = ~/.offchat)
	Dir string `toml:"dir"`
	// Backend selects the blob store: "file" or "sqlite"
	Backend string `toml:"backend"`
}

// ChatConfig contains inference tuning for chat sessions.
type ChatConfig struct {
	// Temperature is the sampling temperature (0 = engine default)
	Temperature float64 `toml:"temperature"`
	// MaxTokens caps response length (0 = engine default)
	MaxTokens int `toml:"max_tokens"`
	// SystemPrompt is prepended to each new session (empty = none)
	SystemPrompt string `toml:"system_prompt"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// ShowTimestamps displays message timestamps in the chat view
	ShowTimestamps bool `toml:"show_timestamps"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode"`
	// Markdown renders assistant replies as markdown
	Markdown bool `toml:"markdown"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error"
	Level string `toml:"level"`
	// File is the log file path (empty = ~/.offchat/offchat.log)
	File string `toml:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		DefaultModel: model.DefaultDescriptor().ID,

		Engine: EngineConfig{
			BaseURL:     "http://127.0.0.1:11434",
			APIKey:      "",
			TimeoutSecs: 30,
		},

		Storage: StorageConfig{
			Dir:     "",
			Backend: "file",
		},

		Chat: ChatConfig{
			Temperature:  0,
			MaxTokens:    0,
			SystemPrompt: "",
		},

		UI: UIConfig{
			Theme:          "dark",
			ShowTimestamps: false,
			CompactMode:    false,
			Markdown:       true,
		},

		Log: LogConfig{
			Level: "info",
			File:  "",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the offchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".offchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// DataDir returns the resolved storage directory for the config,
// falling back to the config directory when unset.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	return ConfigDir()
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back
// to built-in defaults when no file exists. Environment overrides are
// applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if err := loadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := loadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadTOML decodes a TOML file over cfg.
func loadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.DefaultModel == "" {
		cfg.DefaultModel = defaults.DefaultModel
	}
	if cfg.Engine.BaseURL == "" {
		cfg.Engine.BaseURL = defaults.Engine.BaseURL
	}
	if cfg.Engine.TimeoutSecs == 0 {
		cfg.Engine.TimeoutSecs = defaults.Engine.TimeoutSecs
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported variables:
//   - OFFCHAT_ENGINE_URL: overrides engine.base_url
//   - OFFCHAT_API_KEY: overrides engine.api_key
//   - OFFCHAT_TIMEOUT_SECS: overrides engine.timeout_secs
//   - OFFCHAT_STORAGE_DIR: overrides storage.dir
//   - OFFCHAT_STORAGE_BACKEND: overrides storage.backend
//   - OFFCHAT_DEFAULT_MODEL: overrides default_model
//   - OFFCHAT_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("OFFCHAT_ENGINE_URL"); v != "" {
		c.Engine.BaseURL = v
	}
	if v := os.Getenv("OFFCHAT_API_KEY"); v != "" {
		c.Engine.APIKey = v
	}
	if v := os.Getenv("OFFCHAT_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Engine.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("OFFCHAT_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("OFFCHAT_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("OFFCHAT_DEFAULT_MODEL"); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv("OFFCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// Config files are created 0600 since they may hold an API key.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# offchat configuration file")
	fmt.Fprintln(file, "# Generated by offchat - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Engine.BaseURL != "" {
		if u, err := url.Parse(c.Engine.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "engine.base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Engine.BaseURL),
			})
		}
	}

	if c.Engine.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "engine.timeout_secs",
			Message: "timeout cannot be negative",
		})
	}

	validBackends := map[string]bool{"file": true, "sqlite": true}
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite", c.Storage.Backend),
		})
	}

	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "chat.temperature",
			Message: fmt.Sprintf("temperature must be 0-2, got %g", c.Chat.Temperature),
		})
	}

	if c.Chat.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "chat.max_tokens",
			Message: "max_tokens cannot be negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if c.DefaultModel != "" {
		if _, ok := model.DescriptorByID(c.DefaultModel); !ok {
			errs = append(errs, ValidationError{
				Field:   "default_model",
				Message: fmt.Sprintf("unknown model '%s'", c.DefaultModel),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
