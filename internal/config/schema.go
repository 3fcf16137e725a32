package config

// Config is the root configuration structure.
type Config struct {
	Spotify SpotifyConfig `toml:"spotify" json:"spotify"`
	Poll    PollConfig    `toml:"poll" json:"poll"`
	Cache   CacheConfig   `toml:"cache" json:"cache"`
	Palette PaletteConfig `toml:"palette" json:"palette"`
	Display DisplayConfig `toml:"display" json:"display"`
	Log     LogConfig     `toml:"log" json:"log"`

	// path is the file the configuration was read from.
	path string
}

// SpotifyConfig holds Spotify API settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" json:"clientId"`
	ClientSecret string `toml:"client_secret" json:"clientSecret"`
	RedirectURI  string `toml:"redirect_uri" json:"redirectUri"`
	TokenFile    string `toml:"token_file" json:"tokenFile,omitempty"`
}

// PollConfig holds poller settings.
type PollConfig struct {
	// Interval between the end of one poll and the start of the next, in seconds.
	Interval int `toml:"interval" json:"interval,omitempty"`
}

// CacheConfig holds settings for the album art cache.
type CacheConfig struct {
	Dir string `toml:"dir" json:"dir,omitempty"`
}

// PaletteConfig selects the color extractor.
type PaletteConfig struct {
	Extractor string `toml:"extractor" json:"extractor,omitempty"`
}

// DisplayConfig holds settings for the display process.
type DisplayConfig struct {
	Record string `toml:"record" json:"record,omitempty"`
	FPS    int    `toml:"fps" json:"fps,omitempty"`
	// Terminal wraps the display command, e.g. ["kitty", "--start-as=fullscreen", "-e"].
	// Empty runs the display in the current terminal.
	Terminal []string `toml:"terminal" json:"terminal,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" json:"level,omitempty"`
	File  string `toml:"file" json:"file,omitempty"`
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}
