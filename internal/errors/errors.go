package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrConfigNotFound   = errors.New("config file not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAuthDenied       = errors.New("authorization denied")
	ErrNoTrack          = errors.New("no current or recent track")
	ErrRateLimited      = errors.New("rate limited")
	ErrDisplayArgs      = errors.New("missing display start parameters")
)

// ArtwallError wraps an error with a user-friendly suggestion.
type ArtwallError struct {
	Err        error
	Suggestion string
}

func (e *ArtwallError) Error() string {
	return e.Err.Error()
}

func (e *ArtwallError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &ArtwallError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var awErr *ArtwallError
	if errors.As(err, &awErr) && awErr.Suggestion != "" {
		return awErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrConfigNotFound) {
		return "Run 'artwall config init' to create a configuration file"
	}

	if errors.Is(err, ErrInvalidConfig) {
		return "Check the values in your config file with 'artwall config show'"
	}

	if errors.Is(err, ErrAuthDenied) {
		return "Authorization was declined in the browser. Run 'artwall auth login' to try again"
	}

	if errors.Is(err, ErrNotAuthenticated) || strings.Contains(errStr, "invalid access token") ||
		strings.Contains(errStr, "token expired") {
		return "Run 'artwall auth login' to authenticate with Spotify"
	}

	if errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") {
		return "Too many requests. The next poll will try again"
	}

	if errors.Is(err, ErrDisplayArgs) {
		return "The display is started by 'artwall run'; it is not meant to be launched by hand"
	}

	if strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") {
		return "Check your internet connection"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
