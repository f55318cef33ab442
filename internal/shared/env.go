package shared

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override the TOML configuration.
const (
	EnvBaseURL         = "NCP_BASE_URL"
	EnvStreamResolver  = "NCP_STREAM_RESOLVER"
	EnvDefaultPlaylist = "NCP_DEFAULT_PLAYLIST"
	EnvLogLevel        = "NCP_LOG_LEVEL"
	EnvMPVPath         = "NCP_MPV_PATH"
)

// LoadEnv loads variables from the given .env files into the process environment.
//
// Missing files are ignored; existing variables are never overwritten.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays NCP_* environment variables onto the config.
func (c *Config) ApplyEnv() {
	overlay := []struct {
		key    string
		target *string
	}{
		{EnvBaseURL, &c.Catalog.BaseURL},
		{EnvStreamResolver, &c.Catalog.StreamResolver},
		{EnvDefaultPlaylist, &c.Player.DefaultPlaylist},
		{EnvLogLevel, &c.Log.Level},
		{EnvMPVPath, &c.Player.MPVPath},
	}
	for _, o := range overlay {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.target = v
		}
	}
}
