package config

import (
	"os"
	"path/filepath"
)

// Default poller and display settings.
const (
	DefaultRedirectURI  = "http://127.0.0.1:8888/callback"
	DefaultPollInterval = 30
	DefaultExtractor    = "vibrant"
	DefaultFPS          = 12
	DefaultLogLevel     = "info"

	tokenFileName  = "spotify_token.json"
	recordFileName = "current.json"
	cacheDirName   = "art"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	dir := dataDir()
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: DefaultRedirectURI,
			TokenFile:   filepath.Join(configDir(), tokenFileName),
		},
		Poll: PollConfig{
			Interval: DefaultPollInterval,
		},
		Cache: CacheConfig{
			Dir: filepath.Join(dir, cacheDirName),
		},
		Palette: PaletteConfig{
			Extractor: DefaultExtractor,
		},
		Display: DisplayConfig{
			Record: filepath.Join(dir, recordFileName),
			FPS:    DefaultFPS,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Spotify
	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = d.Spotify.RedirectURI
	}
	if c.Spotify.TokenFile == "" {
		c.Spotify.TokenFile = d.Spotify.TokenFile
	}

	// Poll
	if c.Poll.Interval == 0 {
		c.Poll.Interval = d.Poll.Interval
	}

	// Cache
	if c.Cache.Dir == "" {
		c.Cache.Dir = d.Cache.Dir
	}

	// Palette
	if c.Palette.Extractor == "" {
		c.Palette.Extractor = d.Palette.Extractor
	}

	// Display
	if c.Display.Record == "" {
		c.Display.Record = d.Display.Record
	}
	if c.Display.FPS == 0 {
		c.Display.FPS = d.Display.FPS
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// configDir is where the token is stored, next to the config file.
func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "artwall")
	}
	return dataDir()
}

// dataDir is where the record and art cache live by default.
func dataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "artwall")
	}
	return filepath.Join(os.TempDir(), "artwall")
}
