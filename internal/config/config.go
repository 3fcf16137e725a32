package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	awerrors "github.com/tessro/artwall/internal/errors"
)

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "ARTWALL_CONFIG"

// Load reads configuration from standard locations with environment overrides.
// Search order: $ARTWALL_CONFIG, ~/.artwallrc, $XDG_CONFIG_HOME/artwall/config.toml,
// $XDG_CONFIG_HOME/artwall/config.json. A missing file is an error.
func Load() (*Config, error) {
	loadDotEnv()

	path := findConfigFile()
	if path == "" {
		return nil, fmt.Errorf("searched %s: %w", strings.Join(searchPaths(), ", "), awerrors.ErrConfigNotFound)
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific file path.
// Files ending in .json are decoded as JSON, everything else as TOML.
func LoadFrom(path string) (*Config, error) {
	loadDotEnv()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, awerrors.ErrConfigNotFound)
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg := &Config{path: path}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// The flat {clientId, clientSecret, redirectUri} layout fills the
		// spotify section; a nested layout overrides it.
		if err := json.Unmarshal(data, &cfg.Spotify); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes the configuration as TOML, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	cfg.path = path
	return nil
}

// DefaultPath is where 'config init' writes a new file.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.toml")
}

// loadDotEnv pulls variables from a .env file in the working directory, if any.
func loadDotEnv() {
	_ = godotenv.Load()
}

// searchPaths lists the candidate config files in priority order.
func searchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}

	home, err := os.UserHomeDir()
	if err == nil {
		paths = append(paths, filepath.Join(home, ".artwallrc"))
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" && home != "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	if xdgConfig != "" {
		paths = append(paths,
			filepath.Join(xdgConfig, "artwall", "config.toml"),
			filepath.Join(xdgConfig, "artwall", "config.json"),
		)
	}
	return paths
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	for _, p := range searchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Spotify
	if v := os.Getenv("ARTWALL_SPOTIFY_CLIENT_ID"); v != "" {
		cfg.Spotify.ClientID = v
	}
	if v := os.Getenv("ARTWALL_SPOTIFY_CLIENT_SECRET"); v != "" {
		cfg.Spotify.ClientSecret = v
	}
	if v := os.Getenv("ARTWALL_SPOTIFY_REDIRECT_URI"); v != "" {
		cfg.Spotify.RedirectURI = v
	}

	// Poll
	if v := os.Getenv("ARTWALL_POLL_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Poll.Interval = i
		}
	}

	// Cache
	if v := os.Getenv("ARTWALL_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}

	// Palette
	if v := os.Getenv("ARTWALL_PALETTE_EXTRACTOR"); v != "" {
		cfg.Palette.Extractor = v
	}

	// Log
	if v := os.Getenv("ARTWALL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ARTWALL_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
