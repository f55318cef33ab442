package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Catalog.BaseURL != "https://apis.netstart.cn/music" {
			t.Errorf("expected default base URL, got %s", config.Catalog.BaseURL)
		}

		if config.Catalog.StreamResolver != "https://api.injahow.cn/meting/" {
			t.Errorf("expected default stream resolver, got %s", config.Catalog.StreamResolver)
		}

		if config.Player.DefaultPlaylist != "14185195349" {
			t.Errorf("expected default playlist 14185195349, got %s", config.Player.DefaultPlaylist)
		}

		if config.Player.LoadTimeout() != 10*time.Second {
			t.Errorf("expected 10s load timeout, got %v", config.Player.LoadTimeout())
		}

		if len(config.Playlists) == 0 || config.Playlists[0].Name != "精选" {
			t.Errorf("expected default playlist selector entry, got %+v", config.Playlists)
		}

		if config.Server.Addr() != "127.0.0.1:3000" {
			t.Errorf("expected server addr 127.0.0.1:3000, got %s", config.Server.Addr())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Catalog.BaseURL != DefaultConfig().Catalog.BaseURL {
			t.Errorf("created config base URL doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[catalog]
base_url = "http://localhost:3000"
stream_resolver = "http://localhost:4000/"
timeout_seconds = 3
rate_limit = 2.5

[player]
mpv_path = "/usr/local/bin/mpv"
load_timeout_seconds = 5

[[playlists]]
name = "Morning"
id = "111"

[[playlists]]
name = "Night"
id = "222"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Catalog.Timeout() != 3*time.Second {
			t.Errorf("expected 3s timeout, got %v", config.Catalog.Timeout())
		}

		if config.Catalog.RateLimit != 2.5 {
			t.Errorf("expected rate limit 2.5, got %v", config.Catalog.RateLimit)
		}

		if config.Player.LoadTimeout() != 5*time.Second {
			t.Errorf("expected 5s load timeout, got %v", config.Player.LoadTimeout())
		}

		if len(config.Playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(config.Playlists))
		}

		if got := config.DefaultPlaylist(); got != "111" {
			t.Errorf("expected first selector entry as default playlist, got %s", got)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("LoadConfig rejects playlist without id", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[catalog]
base_url = "http://localhost:3000"
stream_resolver = "http://localhost:4000/"

[[playlists]]
name = "Broken"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("timeouts fall back when unset", func(t *testing.T) {
		var config Config
		if config.Catalog.Timeout() != 10*time.Second {
			t.Errorf("expected 10s catalog timeout fallback, got %v", config.Catalog.Timeout())
		}
		if config.Player.LoadTimeout() != 10*time.Second {
			t.Errorf("expected 10s load timeout fallback, got %v", config.Player.LoadTimeout())
		}
		if config.DefaultPlaylist() != "" {
			t.Errorf("expected empty default playlist, got %s", config.DefaultPlaylist())
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("overrides set variables", func(t *testing.T) {
		t.Setenv(EnvBaseURL, "http://env.example")
		t.Setenv(EnvDefaultPlaylist, "999")
		t.Setenv(EnvLogLevel, "debug")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Catalog.BaseURL != "http://env.example" {
			t.Errorf("expected env base URL, got %s", config.Catalog.BaseURL)
		}
		if config.Player.DefaultPlaylist != "999" {
			t.Errorf("expected env default playlist, got %s", config.Player.DefaultPlaylist)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected env log level, got %s", config.Log.Level)
		}
	})

	t.Run("empty variables are ignored", func(t *testing.T) {
		t.Setenv(EnvStreamResolver, "")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Catalog.StreamResolver != "https://api.injahow.cn/meting/" {
			t.Errorf("expected resolver to keep default, got %s", config.Catalog.StreamResolver)
		}
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("missing file is not an error", func(t *testing.T) {
		if err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("loads variables from file", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("NCP_MPV_PATH=/opt/mpv\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv(EnvMPVPath, "")
		os.Unsetenv(EnvMPVPath)

		if err := LoadEnv(envPath); err != nil {
			t.Fatalf("LoadEnv failed: %v", err)
		}

		if got := os.Getenv(EnvMPVPath); got != "/opt/mpv" {
			t.Errorf("expected /opt/mpv, got %q", got)
		}
	})
}
