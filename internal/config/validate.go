package config

import (
	"errors"
	"fmt"
	"net/url"

	awerrors "github.com/tessro/artwall/internal/errors"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Spotify.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spotify: %w", err))
	}
	if err := c.Poll.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("poll: %w", err))
	}
	if err := c.Palette.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("palette: %w", err))
	}
	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", awerrors.ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks SpotifyConfig for errors.
func (c *SpotifyConfig) Validate() error {
	if c.ClientID == "" {
		return errors.New("client_id is required")
	}
	if c.ClientSecret == "" {
		return errors.New("client_secret is required")
	}
	if c.RedirectURI != "" {
		u, err := url.Parse(c.RedirectURI)
		if err != nil {
			return fmt.Errorf("invalid redirect_uri: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid redirect_uri scheme: %q", u.Scheme)
		}
	}
	return nil
}

// Validate checks PollConfig for errors.
func (c *PollConfig) Validate() error {
	if c.Interval < 0 {
		return errors.New("interval must be non-negative")
	}
	return nil
}

// Validate checks PaletteConfig for errors.
func (c *PaletteConfig) Validate() error {
	switch c.Extractor {
	case "", "vibrant", "dominant":
		// valid
	default:
		return fmt.Errorf("invalid extractor: %s (must be vibrant or dominant)", c.Extractor)
	}
	return nil
}

// Validate checks DisplayConfig for errors.
func (c *DisplayConfig) Validate() error {
	if c.FPS < 0 || c.FPS > 60 {
		return errors.New("fps must be between 0 and 60")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
