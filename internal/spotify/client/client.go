package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	awerrors "github.com/tessro/artwall/internal/errors"
	"github.com/tessro/artwall/internal/spotify/auth"
)

// API is the part of the Spotify Web API artwall calls.
// *spotify.Client satisfies it.
type API interface {
	PlayerCurrentlyPlaying(ctx context.Context, opts ...spotify.RequestOption) (*spotify.CurrentlyPlaying, error)
	PlayerRecentlyPlayedOpt(ctx context.Context, opt *spotify.RecentlyPlayedOptions) ([]spotify.RecentlyPlayedItem, error)
	GetTrack(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullTrack, error)
	GetAudioFeatures(ctx context.Context, ids ...spotify.ID) ([]*spotify.AudioFeatures, error)
}

// Authorizer renews credentials when the API rejects the current token.
type Authorizer interface {
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
	Login(ctx context.Context) (*oauth2.Token, error)
}

// TokenStore persists tokens between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
}

// APIFactory builds an API client bound to a token.
type APIFactory func(ctx context.Context, token *oauth2.Token) API

// tokenSource is implemented by *spotify.Client.
type tokenSource interface {
	Token() (*oauth2.Token, error)
}

// Session owns the authenticated Spotify client and its token.
type Session struct {
	authorizer Authorizer
	storage    TokenStore
	newAPI     APIFactory
	logger     *zap.Logger

	mu    sync.Mutex
	token *oauth2.Token
	api   API
}

// New creates a session backed by the zmb3 authenticator.
func New(a *auth.Authenticator, storage *auth.TokenStorage, logger *zap.Logger) *Session {
	return NewWithFactory(a, storage, func(ctx context.Context, token *oauth2.Token) API {
		return a.Client(ctx, token)
	}, logger)
}

// NewWithFactory creates a session with an explicit API factory.
func NewWithFactory(authorizer Authorizer, storage TokenStore, newAPI APIFactory, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		authorizer: authorizer,
		storage:    storage,
		newAPI:     newAPI,
		logger:     logger,
	}
}

// Open loads the stored token, running the authorization flow when none
// exists yet.
func (s *Session) Open(ctx context.Context) error {
	token, err := s.storage.Load()
	if err != nil {
		return err
	}

	if token == nil {
		s.logger.Info("no stored token, starting authorization")
		token, err = s.authorizer.Login(ctx)
		if err != nil {
			return fmt.Errorf("authorization failed: %w", err)
		}
	}

	return s.setToken(token)
}

// Cycle starts a new poll cycle. Authentication recovery state is scoped
// to the cycle.
func (s *Session) Cycle() *Cycle {
	return &Cycle{session: s}
}

// Token returns the current token.
func (s *Session) Token() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) current() API {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.api
}

// setToken installs a token, rebuilds the client and persists the token.
func (s *Session) setToken(token *oauth2.Token) error {
	s.mu.Lock()
	s.token = token
	// The client outlives any single request, so it must not inherit a
	// request context.
	s.api = s.newAPI(context.Background(), token)
	s.mu.Unlock()

	if err := s.storage.Save(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// syncToken persists the token when the oauth2 transport refreshed it
// behind our back.
func (s *Session) syncToken() {
	ts, ok := s.current().(tokenSource)
	if !ok {
		return
	}
	latest, err := ts.Token()
	if err != nil || latest == nil {
		return
	}

	s.mu.Lock()
	changed := s.token == nil || latest.AccessToken != s.token.AccessToken
	if changed {
		s.token = latest
	}
	s.mu.Unlock()

	if changed {
		if err := s.storage.Save(latest); err != nil {
			s.logger.Warn("failed to save refreshed token", zap.Error(err))
			return
		}
		s.logger.Debug("saved refreshed token")
	}
}

func (s *Session) refresh(ctx context.Context) error {
	newToken, err := s.authorizer.Refresh(ctx, s.Token())
	if err != nil {
		return err
	}
	return s.setToken(newToken)
}

func (s *Session) login(ctx context.Context) error {
	newToken, err := s.authorizer.Login(ctx)
	if err != nil {
		return err
	}
	return s.setToken(newToken)
}

// Cycle runs API calls for one poll cycle. Each call gets one refresh and
// retry when the token is rejected; the full authorization flow runs at
// most once per cycle.
type Cycle struct {
	session  *Session
	reauthed bool
}

// Do runs fn against the current client, recovering from rejected tokens.
// When recovery fails the returned error wraps ErrNotAuthenticated.
func (c *Cycle) Do(ctx context.Context, fn func(API) error) error {
	s := c.session

	err := fn(s.current())
	if err == nil {
		s.syncToken()
		return nil
	}
	if !IsAuthError(err) {
		return err
	}

	s.logger.Info("access token rejected, refreshing", zap.Error(err))
	if rerr := s.refresh(ctx); rerr != nil {
		s.logger.Warn("token refresh failed", zap.Error(rerr))
	} else {
		err = fn(s.current())
		if err == nil || !IsAuthError(err) {
			return err
		}
	}

	if c.reauthed {
		return fmt.Errorf("%w: %w", awerrors.ErrNotAuthenticated, err)
	}
	c.reauthed = true

	s.logger.Warn("re-running authorization flow")
	if lerr := s.login(ctx); lerr != nil {
		if errors.Is(lerr, awerrors.ErrAuthDenied) {
			return lerr
		}
		return fmt.Errorf("%w: %w", awerrors.ErrNotAuthenticated, lerr)
	}

	err = fn(s.current())
	if err != nil && IsAuthError(err) {
		return fmt.Errorf("%w: %w", awerrors.ErrNotAuthenticated, err)
	}
	if err == nil {
		s.syncToken()
	}
	return err
}

// IsAuthError reports whether err means the access token was rejected or
// could not be refreshed.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized
	}
	var apiErrPtr *spotify.Error
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Status == http.StatusUnauthorized
	}

	// A refresh only counts when the token endpoint rejected the grant.
	// Outages and 5xx responses are transient.
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode == "invalid_grant" {
			return true
		}
		if retrieveErr.Response != nil {
			switch retrieveErr.Response.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized:
				return true
			}
		}
	}
	return false
}

// IsRateLimited reports whether err is a 429 from the API.
func IsRateLimited(err error) bool {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests
	}
	return false
}
