package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	awerrors "github.com/tessro/artwall/internal/errors"
)

type fakeAuthorizer struct {
	refreshErr error
	loginErr   error
	refreshes  int
	logins     int
}

func (f *fakeAuthorizer) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &oauth2.Token{AccessToken: fmt.Sprintf("refreshed-%d", f.refreshes), RefreshToken: "r"}, nil
}

func (f *fakeAuthorizer) Login(ctx context.Context) (*oauth2.Token, error) {
	f.logins++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &oauth2.Token{AccessToken: fmt.Sprintf("login-%d", f.logins), RefreshToken: "r"}, nil
}

type memStore struct {
	token *oauth2.Token
	saves int
}

func (m *memStore) Load() (*oauth2.Token, error) { return m.token, nil }

func (m *memStore) Save(token *oauth2.Token) error {
	m.token = token
	m.saves++
	return nil
}

// stubAPI records which token it was built with.
type stubAPI struct {
	API
	token string
}

func newSession(a Authorizer, store TokenStore) *Session {
	return NewWithFactory(a, store, func(ctx context.Context, token *oauth2.Token) API {
		return &stubAPI{token: token.AccessToken}
	}, nil)
}

var errUnauthorized = spotify.Error{Message: "The access token expired", Status: http.StatusUnauthorized}

func TestOpenUsesStoredToken(t *testing.T) {
	authz := &fakeAuthorizer{}
	store := &memStore{token: &oauth2.Token{AccessToken: "stored"}}
	s := newSession(authz, store)

	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if authz.logins != 0 {
		t.Errorf("logins = %d, want 0", authz.logins)
	}
	if got := s.Token().AccessToken; got != "stored" {
		t.Errorf("token = %q, want %q", got, "stored")
	}
}

func TestOpenLogsInWithoutToken(t *testing.T) {
	authz := &fakeAuthorizer{}
	store := &memStore{}
	s := newSession(authz, store)

	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if authz.logins != 1 {
		t.Errorf("logins = %d, want 1", authz.logins)
	}
	if store.token == nil || store.token.AccessToken != "login-1" {
		t.Errorf("stored token = %+v, want login-1", store.token)
	}
}

func TestOpenLoginDenied(t *testing.T) {
	authz := &fakeAuthorizer{loginErr: awerrors.ErrAuthDenied}
	store := &memStore{}
	s := newSession(authz, store)

	err := s.Open(context.Background())
	if !errors.Is(err, awerrors.ErrAuthDenied) {
		t.Fatalf("Open() error = %v, want ErrAuthDenied", err)
	}
	if store.saves != 0 {
		t.Errorf("saves = %d, want 0", store.saves)
	}
}

func TestCycleRefreshesOnce(t *testing.T) {
	authz := &fakeAuthorizer{}
	store := &memStore{token: &oauth2.Token{AccessToken: "stale", RefreshToken: "r"}}
	s := newSession(authz, store)
	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}

	calls := 0
	err := s.Cycle().Do(context.Background(), func(api API) error {
		calls++
		if api.(*stubAPI).token == "stale" {
			return errUnauthorized
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if authz.refreshes != 1 || authz.logins != 0 {
		t.Errorf("refreshes = %d, logins = %d, want 1, 0", authz.refreshes, authz.logins)
	}
	if store.token.AccessToken != "refreshed-1" {
		t.Errorf("stored token = %q, want refreshed-1", store.token.AccessToken)
	}
}

func TestCycleReauthenticatesOncePerCycle(t *testing.T) {
	authz := &fakeAuthorizer{refreshErr: &oauth2.RetrieveError{ErrorCode: "invalid_grant"}}
	store := &memStore{token: &oauth2.Token{AccessToken: "stale", RefreshToken: "r"}}
	s := newSession(authz, store)
	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}

	alwaysUnauthorized := func(API) error { return errUnauthorized }

	cycle := s.Cycle()
	for i := 0; i < 3; i++ {
		err := cycle.Do(context.Background(), alwaysUnauthorized)
		if !errors.Is(err, awerrors.ErrNotAuthenticated) {
			t.Fatalf("Do() #%d error = %v, want ErrNotAuthenticated", i, err)
		}
	}
	if authz.logins != 1 {
		t.Errorf("logins in one cycle = %d, want 1", authz.logins)
	}

	// A new cycle gets a fresh chance.
	_ = s.Cycle().Do(context.Background(), alwaysUnauthorized)
	if authz.logins != 2 {
		t.Errorf("logins after second cycle = %d, want 2", authz.logins)
	}
}

func TestCycleReauthRecovers(t *testing.T) {
	authz := &fakeAuthorizer{refreshErr: errors.New("refresh failed")}
	store := &memStore{token: &oauth2.Token{AccessToken: "stale", RefreshToken: "r"}}
	s := newSession(authz, store)
	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := s.Cycle().Do(context.Background(), func(api API) error {
		if api.(*stubAPI).token == "login-1" {
			return nil
		}
		return errUnauthorized
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if store.token.AccessToken != "login-1" {
		t.Errorf("stored token = %q, want login-1", store.token.AccessToken)
	}
}

func TestCycleLoginFailureAborts(t *testing.T) {
	authz := &fakeAuthorizer{
		refreshErr: errors.New("refresh failed"),
		loginErr:   errors.New("browser closed"),
	}
	store := &memStore{token: &oauth2.Token{AccessToken: "stale"}}
	s := newSession(authz, store)
	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := s.Cycle().Do(context.Background(), func(API) error { return errUnauthorized })
	if !errors.Is(err, awerrors.ErrNotAuthenticated) {
		t.Errorf("Do() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestCycleNonAuthErrorPassesThrough(t *testing.T) {
	authz := &fakeAuthorizer{}
	store := &memStore{token: &oauth2.Token{AccessToken: "ok"}}
	s := newSession(authz, store)
	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}

	apiErr := spotify.Error{Message: "boom", Status: http.StatusInternalServerError}
	err := s.Cycle().Do(context.Background(), func(API) error { return apiErr })
	if !errors.As(err, &spotify.Error{}) {
		t.Errorf("Do() error = %v, want spotify.Error", err)
	}
	if authz.refreshes != 0 {
		t.Errorf("refreshes = %d, want 0", authz.refreshes)
	}
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unauthorized", errUnauthorized, true},
		{"wrapped unauthorized", fmt.Errorf("get: %w", errUnauthorized), true},
		{"server error", spotify.Error{Status: http.StatusBadGateway}, false},
		{"revoked refresh token", &oauth2.RetrieveError{ErrorCode: "invalid_grant"}, true},
		{"token endpoint 400", &oauth2.RetrieveError{Response: &http.Response{StatusCode: http.StatusBadRequest}}, true},
		{"token endpoint 401", &oauth2.RetrieveError{Response: &http.Response{StatusCode: http.StatusUnauthorized}}, true},
		{"token endpoint 503", &oauth2.RetrieveError{Response: &http.Response{StatusCode: http.StatusServiceUnavailable}}, false},
		{"wrapped token endpoint 500", fmt.Errorf("refresh: %w", &oauth2.RetrieveError{Response: &http.Response{StatusCode: http.StatusInternalServerError}}), false},
		{"plain", errors.New("dial tcp: timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthError(tt.err); got != tt.want {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	if !IsRateLimited(spotify.Error{Status: http.StatusTooManyRequests}) {
		t.Error("IsRateLimited(429) = false, want true")
	}
	if IsRateLimited(errUnauthorized) {
		t.Error("IsRateLimited(401) = true, want false")
	}
}
