package wizard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/tessro/artwall/internal/config"
)

// RunSetup asks for the Spotify app credentials and palette settings,
// filling in cfg. Existing values are offered as defaults.
func RunSetup(cfg *config.Config) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Spotify app").
				Description("Create an app at https://developer.spotify.com/dashboard\nand add the redirect URI below to its settings."),
			huh.NewInput().
				Title("Client ID").
				Value(&cfg.Spotify.ClientID).
				Validate(required("client ID")),
			huh.NewInput().
				Title("Client secret").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Spotify.ClientSecret).
				Validate(required("client secret")),
			huh.NewInput().
				Title("Redirect URI").
				Value(&cfg.Spotify.RedirectURI).
				Validate(ValidateRedirectURI),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Palette").
				Description("How colors are picked from the album art").
				Options(
					huh.NewOption("Vibrant swatches", "vibrant"),
					huh.NewOption("Dominant colors", "dominant"),
				).
				Value(&cfg.Palette.Extractor),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	cfg.Spotify.ClientID = strings.TrimSpace(cfg.Spotify.ClientID)
	cfg.Spotify.ClientSecret = strings.TrimSpace(cfg.Spotify.ClientSecret)
	return nil
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// ValidateRedirectURI accepts absolute http(s) URIs with a host.
func ValidateRedirectURI(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URI: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("redirect URI must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("redirect URI needs a host")
	}
	return nil
}
