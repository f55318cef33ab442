package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Catalog   CatalogConfig `toml:"catalog"`
	Player    PlayerConfig  `toml:"player"`
	Playlists []PlaylistRef `toml:"playlists"`
	Log       LogConfig     `toml:"log"`
	Server    ServerConfig  `toml:"server"`
}

// CatalogConfig contains the music catalog API settings.
type CatalogConfig struct {
	BaseURL        string  `toml:"base_url"`
	StreamResolver string  `toml:"stream_resolver"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second
}

// Timeout returns the per-request timeout, defaulting to ten seconds.
func (c CatalogConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PlayerConfig contains playback settings.
type PlayerConfig struct {
	MPVPath            string `toml:"mpv_path"`
	LoadTimeoutSeconds int    `toml:"load_timeout_seconds"`
	DefaultPlaylist    string `toml:"default_playlist"`
}

// LoadTimeout returns how long a track may take to become ready.
func (p PlayerConfig) LoadTimeout() time.Duration {
	if p.LoadTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.LoadTimeoutSeconds) * time.Second
}

// PlaylistRef is one entry of the playlist selector.
type PlaylistRef struct {
	Name string `toml:"name"`
	ID   string `toml:"id"`
}

// LogConfig contains file logging settings.
type LogConfig struct {
	Path       string `toml:"path"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// ServerConfig contains HTTP control server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port for [net/http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports settings the player cannot run without.
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("%w: catalog.base_url is required", ErrInvalidConfig)
	}
	if c.Catalog.StreamResolver == "" {
		return fmt.Errorf("%w: catalog.stream_resolver is required", ErrInvalidConfig)
	}
	for i, p := range c.Playlists {
		if p.ID == "" {
			return fmt.Errorf("%w: playlists[%d] has no id", ErrInvalidConfig, i)
		}
	}
	return nil
}

// DefaultPlaylist returns the playlist opened at startup: the configured default,
// else the first selector entry.
func (c *Config) DefaultPlaylist() string {
	if c.Player.DefaultPlaylist != "" {
		return c.Player.DefaultPlaylist
	}
	if len(c.Playlists) > 0 {
		return c.Playlists[0].ID
	}
	return ""
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
