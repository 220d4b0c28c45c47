// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading for lumi.
//
// Supports TOML configuration with sensible defaults and environment
// variable overrides.
//
// Configuration file locations (in order of precedence):
//   - ~/.lumi/config.toml
//   - Built-in defaults
//
// Environment overrides use the LUMI_ prefix, e.g. LUMI_USE_REAL_API,
// LUMI_GEMINI_API_KEY, LUMI_PRIMARY_API.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/lumi-chat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete lumi configuration.
type Config struct {
	// App contains branding and welcome copy.
	App AppConfig `toml:"app"`

	// API contains provider selection and credentials.
	API APIConfig `toml:"api"`

	// Storage contains data directory settings.
	Storage StorageConfig `toml:"storage"`

	// Features toggles optional UI surfaces.
	Features FeatureConfig `toml:"features"`

	// UI contains cosmetic settings.
	UI UIConfig `toml:"ui"`

	// Server contains the HTTP API settings.
	Server ServerConfig `toml:"server"`
}

// AppConfig contains branding settings.
type AppConfig struct {
	Name           string `toml:"name"`
	Tagline        string `toml:"tagline"`
	WelcomeMessage string `toml:"welcome_message"`
}

// APIConfig contains provider selection and credentials.
type APIConfig struct {
	// UseRealAPI enables live provider calls. When false every reply
	// comes from the demo generator.
	UseRealAPI bool `toml:"use_real_api"`

	// PrimaryProvider is tried first: "gemini" or "deepseek".
	PrimaryProvider string `toml:"primary_provider"`

	// GeminiKey is the Google AI Studio API key (starts with "AIza").
	GeminiKey string `toml:"gemini_api_key"`

	// DeepSeekKey is the DeepSeek API key.
	DeepSeekKey string `toml:"deepseek_api_key"`

	// TimeoutSecs bounds a single provider request.
	TimeoutSecs int `toml:"timeout_secs"`
}

// StorageConfig contains data directory settings.
type StorageConfig struct {
	// DataDir holds the session slot and search index.
	// Default: ~/.lumi
	DataDir string `toml:"data_dir"`

	// WatchSlot reloads sessions when another process writes the slot.
	WatchSlot bool `toml:"watch_slot"`
}

// FeatureConfig toggles optional UI surfaces.
type FeatureConfig struct {
	VoiceInput  bool `toml:"voice_input"`
	FileUpload  bool `toml:"file_upload"`
	ChatExport  bool `toml:"chat_export"`
	Search      bool `toml:"search"`
	Settings    bool `toml:"settings"`
	ThemeToggle bool `toml:"theme_toggle"`
}

// UIConfig contains cosmetic settings.
type UIConfig struct {
	// Theme is "dark" or "light".
	Theme string `toml:"theme"`
}

// ServerConfig contains the HTTP API settings.
type ServerConfig struct {
	// Port for the local HTTP API.
	Port int `toml:"port"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:           "Lumi AI",
			Tagline:        "Your luminous AI companion",
			WelcomeMessage: "Hello! I'm Lumi, your AI assistant. How can I help you today?",
		},
		API: APIConfig{
			UseRealAPI:      false,
			PrimaryProvider: "gemini",
			TimeoutSecs:     60,
		},
		Storage: StorageConfig{
			WatchSlot: false,
		},
		Features: FeatureConfig{
			VoiceInput:  false,
			FileUpload:  true,
			ChatExport:  true,
			Search:      true,
			Settings:    true,
			ThemeToggle: true,
		},
		UI: UIConfig{
			Theme: "dark",
		},
		Server: ServerConfig{
			Port: 8780,
		},
	}
}

// Timeout returns the provider timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.API.TimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// =============================================================================
// PATHS
// =============================================================================

// DataDir returns the resolved data directory.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".lumi"), nil
}

// ConfigPath returns the TOML config file location.
func ConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".lumi", "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file, applies environment overrides, and
// validates. A missing file yields defaults, not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the config as TOML to the default location.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the config as TOML to an explicit path.
func SaveToPath(cfg *Config, path string) error {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	// Config may contain API keys, keep it private.
	return util.AtomicWriteFile(path, []byte(sb.String()), 0600)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides layers LUMI_* environment variables over the
// loaded values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LUMI_APP_NAME"); v != "" {
		c.App.Name = v
	}
	if v := os.Getenv("LUMI_USE_REAL_API"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.API.UseRealAPI = b
		}
	}
	if v := os.Getenv("LUMI_PRIMARY_API"); v != "" {
		c.API.PrimaryProvider = strings.ToLower(v)
	}
	if v := os.Getenv("LUMI_GEMINI_API_KEY"); v != "" {
		c.API.GeminiKey = v
	}
	if v := os.Getenv("LUMI_DEEPSEEK_API_KEY"); v != "" {
		c.API.DeepSeekKey = v
	}
	if v := os.Getenv("LUMI_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("LUMI_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("LUMI_SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	switch c.API.PrimaryProvider {
	case "gemini", "deepseek":
	case "":
		c.API.PrimaryProvider = "gemini"
	default:
		return fmt.Errorf("unknown primary provider %q (want gemini or deepseek)", c.API.PrimaryProvider)
	}

	switch c.UI.Theme {
	case "dark", "light":
	case "":
		c.UI.Theme = "dark"
	default:
		return fmt.Errorf("unknown theme %q (want dark or light)", c.UI.Theme)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.API.TimeoutSecs < 0 {
		return fmt.Errorf("timeout_secs must not be negative")
	}
	return nil
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on
// first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance, pre-empting the
// lazy load: a later Global() call returns cfg rather than re-loading.
// Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
