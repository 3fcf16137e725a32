package auth

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/atotto/clipboard"
	"github.com/segmentio/ksuid"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/tessro/artwall/internal/browser"
	awerrors "github.com/tessro/artwall/internal/errors"
)

const (
	// DefaultRedirectURI is the default callback URI for the local server.
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"

	// DefaultLoginTimeout bounds how long Login waits for the browser.
	DefaultLoginTimeout = 5 * time.Minute
)

// DefaultScopes are the Spotify scopes artwall needs.
var DefaultScopes = []string{
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserReadRecentlyPlayed,
}

// Config holds the OAuth configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// NewConfig creates a new OAuth configuration with defaults.
func NewConfig(clientID, clientSecret string) *Config {
	return &Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  DefaultRedirectURI,
		Scopes:       DefaultScopes,
	}
}

// Authenticator runs the authorization-code flow and refreshes tokens.
type Authenticator struct {
	config *Config
	auth   *spotifyauth.Authenticator

	// Out receives the prompts shown during Login.
	Out io.Writer
	// OpenURL opens the authorization page. Defaults to the system browser.
	OpenURL func(string) error
	// Timeout bounds Login. Zero means DefaultLoginTimeout.
	Timeout time.Duration
}

// NewAuthenticator creates an Authenticator for the given configuration.
func NewAuthenticator(config *Config, out io.Writer) *Authenticator {
	if config.RedirectURI == "" {
		config.RedirectURI = DefaultRedirectURI
	}
	if len(config.Scopes) == 0 {
		config.Scopes = DefaultScopes
	}

	return &Authenticator{
		config: config,
		auth: spotifyauth.New(
			spotifyauth.WithClientID(config.ClientID),
			spotifyauth.WithClientSecret(config.ClientSecret),
			spotifyauth.WithRedirectURL(config.RedirectURI),
			spotifyauth.WithScopes(config.Scopes...),
		),
		Out:     out,
		OpenURL: browser.Open,
	}
}

// Client returns a Spotify client that authorizes requests with token.
func (a *Authenticator) Client(ctx context.Context, token *oauth2.Token) *spotify.Client {
	return spotify.New(a.auth.Client(ctx, token))
}

// Refresh exchanges the refresh token for a new access token.
func (a *Authenticator) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token == nil || token.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token: %w", awerrors.ErrNotAuthenticated)
	}

	// Force the refresh even if the local expiry has not passed yet.
	stale := *token
	stale.Expiry = time.Now().Add(-time.Minute)

	newToken, err := a.auth.RefreshToken(ctx, &stale)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	// Preserve refresh token if not returned
	if newToken.RefreshToken == "" {
		newToken.RefreshToken = token.RefreshToken
	}
	return newToken, nil
}

// Login runs the full authorization-code flow: it serves the redirect URI
// locally, sends the user to Spotify and exchanges the returned code.
// A denied grant returns ErrAuthDenied.
func (a *Authenticator) Login(ctx context.Context) (*oauth2.Token, error) {
	host, port, path, err := splitRedirect(a.config.RedirectURI)
	if err != nil {
		return nil, err
	}

	callbackServer, err := NewCallbackServer(host, port, path)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	callbackServer.Start()
	defer func() { _ = callbackServer.Shutdown(context.Background()) }()

	state := ksuid.New().String()
	authURL := a.auth.AuthURL(state)
	a.prompt(authURL)

	timeout := a.Timeout
	if timeout == 0 {
		timeout = DefaultLoginTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := callbackServer.Wait(waitCtx)
	if err != nil {
		return nil, fmt.Errorf("authentication timed out: %w", err)
	}

	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", awerrors.ErrAuthDenied, result.Error)
	}

	// Verify state
	if result.State != state {
		return nil, fmt.Errorf("state mismatch: possible CSRF attack")
	}

	token, err := a.auth.Exchange(waitCtx, result.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

func (a *Authenticator) prompt(authURL string) {
	if a.Out == nil {
		a.Out = io.Discard
	}

	fmt.Fprintln(a.Out, "Opening browser for Spotify authentication...")
	if a.OpenURL == nil || a.OpenURL(authURL) != nil {
		fmt.Fprintf(a.Out, "Could not open browser automatically.\n")
		fmt.Fprintf(a.Out, "Please open this URL in your browser:\n\n%s\n\n", authURL)
		if err := clipboard.WriteAll(authURL); err == nil {
			fmt.Fprintln(a.Out, "(The URL has been copied to your clipboard.)")
		}
	}
	fmt.Fprintln(a.Out, "Waiting for authentication...")
}

// splitRedirect extracts the listen host, port and path from a redirect URI.
func splitRedirect(redirectURI string) (host string, port int, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", 0, "", fmt.Errorf("invalid redirect URI: %w", err)
	}

	host = u.Hostname()
	portStr := u.Port()
	switch {
	case portStr != "":
		port, err = strconv.Atoi(portStr)
		if err != nil {
			return "", 0, "", fmt.Errorf("invalid redirect URI port: %w", err)
		}
	case u.Scheme == "https":
		port = 443
	default:
		port = 80
	}

	path = u.Path
	if path == "" {
		path = "/"
	}
	return host, port, path, nil
}
