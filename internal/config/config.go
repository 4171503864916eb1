package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// TokenEnv overrides the Discord bot token from the environment.
const TokenEnv = "PALICO_DISCORD_TOKEN"

// Config represents the application configuration.
type Config struct {
	// Resource data configuration
	Data DataConfig `toml:"data"`

	// Remote database configuration
	Fetch FetchConfig `toml:"fetch"`

	// Discord bot configuration
	Discord DiscordConfig `toml:"discord"`

	// HTTP API configuration
	API APIConfig `toml:"api"`

	// Query log database
	Storage StorageConfig `toml:"storage"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// DataConfig contains raw and derived resource settings.
type DataConfig struct {
	Dir        string   `toml:"dir"`        // Directory holding raw_*.json and parsed_armor.json
	Resources  []string `toml:"resources"`  // Resource kinds to mirror
	Duplicates string   `toml:"duplicates"` // Duplicate piece policy: "last-write-wins" or "reject"
	Watch      bool     `toml:"watch"`      // Log changes to resource files
}

// FetchConfig contains remote database settings.
type FetchConfig struct {
	BaseURL           string  `toml:"base_url"`            // Reference database URL
	Timeout           string  `toml:"timeout"`             // Per-request timeout (e.g., "60s")
	RequestsPerSecond float64 `toml:"requests_per_second"` // Outgoing rate limit
	Concurrency       int     `toml:"concurrency"`         // Parallel resource downloads
}

// DiscordConfig contains chat bot settings.
type DiscordConfig struct {
	Enabled bool   `toml:"enabled"` // Connect to Discord
	Token   string `toml:"token"`   // Bot token, without the "Bot " prefix
	Prefix  string `toml:"prefix"`  // Command prefix (e.g., "!")
}

// APIConfig contains HTTP API settings.
type APIConfig struct {
	Enabled bool `toml:"enabled"` // Serve the HTTP API
	Port    int  `toml:"port"`    // Listen port
}

// StorageConfig contains query log database settings.
type StorageConfig struct {
	Path          string `toml:"path"`           // SQLite file path
	RetentionDays int    `toml:"retention_days"` // Query log retention; 0 keeps everything
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration rooted at ~/.palico-bot.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	root := filepath.Join(home, ".palico-bot")

	return &Config{
		Data: DataConfig{
			Dir:        filepath.Join(root, "resources"),
			Resources:  []string{"armor", "weapons", "charms", "skills"},
			Duplicates: "last-write-wins",
			Watch:      true,
		},
		Fetch: FetchConfig{
			BaseURL:           "https://mhw-db.com",
			Timeout:           "60s",
			RequestsPerSecond: 4,
			Concurrency:       2,
		},
		Discord: DiscordConfig{
			Enabled: false,
			Prefix:  "!",
		},
		API: APIConfig{
			Enabled: true,
			Port:    8080,
		},
		Storage: StorageConfig{
			Path:          filepath.Join(root, "palico.db"),
			RetentionDays: 90,
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// DefaultPath returns the path to the configuration file.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".palico-bot", "config.toml"), nil
}

// Load loads the configuration from the default path.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads the configuration from path. Missing keys keep their
// defaults and a missing file yields the default config.
func LoadFile(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if token := strings.TrimSpace(os.Getenv(TokenEnv)); token != "" {
		config.Discord.Token = token
	}

	return config, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("data dir cannot be empty")
	}

	known := map[string]bool{"armor": true, "weapons": true, "charms": true, "skills": true}
	hasArmor := false
	for _, r := range c.Data.Resources {
		if !known[r] {
			return fmt.Errorf("unknown resource %q", r)
		}
		if r == "armor" {
			hasArmor = true
		}
	}
	if !hasArmor {
		return fmt.Errorf("resources must include armor")
	}

	switch c.Data.Duplicates {
	case "", "last-write-wins", "reject":
	default:
		return fmt.Errorf("invalid duplicates policy %q", c.Data.Duplicates)
	}

	if _, err := time.ParseDuration(c.Fetch.Timeout); err != nil {
		return fmt.Errorf("invalid fetch timeout %q: %w", c.Fetch.Timeout, err)
	}

	if c.Fetch.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative: %v", c.Fetch.RequestsPerSecond)
	}

	if c.Fetch.Concurrency < 0 {
		return fmt.Errorf("fetch concurrency cannot be negative: %d", c.Fetch.Concurrency)
	}

	if c.Discord.Enabled && c.Discord.Token == "" {
		return fmt.Errorf("discord is enabled but no token is set (config or %s)", TokenEnv)
	}

	if c.Discord.Prefix == "" {
		return fmt.Errorf("discord prefix cannot be empty")
	}

	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("retention days cannot be negative: %d", c.Storage.RetentionDays)
	}

	if c.API.Enabled && (c.API.Port <= 0 || c.API.Port > 65535) {
		return fmt.Errorf("invalid api port: %d", c.API.Port)
	}

	return nil
}

// GetFetchTimeout returns the fetch timeout as a duration.
func (c *Config) GetFetchTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Fetch.Timeout)
}
