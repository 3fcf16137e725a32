package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tessro/artwall/internal/config"
	awerrors "github.com/tessro/artwall/internal/errors"
)

// execute runs the root command with args and fresh flag state.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	cfgFile, jsonOut, verbose = "", false, false
	displayRecord, configNoInput = "", false
	cfg = nil

	// Keep config and token lookups inside the test.
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	t.Setenv(config.EnvConfigPath, "")

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestRunWithoutConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.toml")

	err := execute(t, "run", "--config", missing)
	if !errors.Is(err, awerrors.ErrConfigNotFound) {
		t.Fatalf("run error = %v, want ErrConfigNotFound", err)
	}

	home := os.Getenv("HOME")
	if _, err := os.Stat(filepath.Join(home, ".config", "artwall")); !os.IsNotExist(err) {
		t.Errorf("run without config created state: %v", err)
	}
}

func TestRunWithInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[poll]\ninterval = 5\n"), 0600); err != nil {
		t.Fatal(err)
	}

	err := execute(t, "run", "--config", path)
	if !errors.Is(err, awerrors.ErrInvalidConfig) {
		t.Fatalf("run error = %v, want ErrInvalidConfig", err)
	}
}

func TestDisplayArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"none", []string{"display"}},
		{"too few", []string{"display", "--", "/tmp/a.jpg", "[[1,2,3]]"}},
		{"bad colors", []string{"display", "--", "/tmp/a.jpg", "red", `{"track":"t"}`, "null"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, tt.args...)
			if !errors.Is(err, awerrors.ErrDisplayArgs) {
				t.Errorf("display error = %v, want ErrDisplayArgs", err)
			}
		})
	}
}

func TestConfigInitNoInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := execute(t, "config", "init", "--no-input", "--config", path); err != nil {
		t.Fatalf("config init error = %v", err)
	}

	loaded, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Poll.Interval != config.DefaultPollInterval {
		t.Errorf("Poll.Interval = %d, want %d", loaded.Poll.Interval, config.DefaultPollInterval)
	}

	// A second init must not clobber the file.
	if err := execute(t, "config", "init", "--no-input", "--config", path); err == nil {
		t.Error("second config init succeeded, want error")
	}
}

func TestConfigSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[spotify]\nclient_id = \"id\"\nclient_secret = \"secret\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "config", "set", "poll.interval", "15", "--config", path); err != nil {
		t.Fatalf("config set error = %v", err)
	}
	if err := execute(t, "config", "set", "palette.extractor", "dominant", "--config", path); err != nil {
		t.Fatalf("config set error = %v", err)
	}

	loaded, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Poll.Interval != 15 {
		t.Errorf("Poll.Interval = %d, want 15", loaded.Poll.Interval)
	}
	if loaded.Palette.Extractor != "dominant" {
		t.Errorf("Palette.Extractor = %q, want dominant", loaded.Palette.Extractor)
	}
	if loaded.Spotify.ClientID != "id" {
		t.Errorf("ClientID = %q, want id (existing keys kept)", loaded.Spotify.ClientID)
	}
}

func TestConfigSetRejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "defaults.device", "x"},
		{"not an integer", "poll.interval", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			err := execute(t, "config", "set", tt.key, tt.value, "--config", path)
			if !errors.Is(err, awerrors.ErrInvalidConfig) {
				t.Errorf("config set error = %v, want ErrInvalidConfig", err)
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Error("rejected set wrote the config file")
			}
		})
	}
}

func TestAuthLogoutWithoutToken(t *testing.T) {
	if err := execute(t, "auth", "logout", "--json"); err != nil {
		t.Errorf("auth logout error = %v", err)
	}
}

func TestDefaultLogFile(t *testing.T) {
	c := config.Default()
	c.Display.Record = filepath.Join("/data", "artwall", "current.json")

	if got, want := defaultLogFile(c), filepath.Join("/data", "artwall", "artwall.log"); got != want {
		t.Errorf("defaultLogFile() = %q, want %q", got, want)
	}

	c.Log.File = "/var/log/artwall.log"
	if got := defaultLogFile(c); got != c.Log.File {
		t.Errorf("defaultLogFile() = %q, want configured %q", got, c.Log.File)
	}
}

func TestIgnoreInterrupt(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	loginErr := fmt.Errorf("%w: callback", context.Canceled)

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want error
	}{
		{"interrupted login", cancelled, loginErr, nil},
		{"interrupted other error", cancelled, awerrors.ErrAuthDenied, nil},
		{"live context keeps error", context.Background(), awerrors.ErrAuthDenied, awerrors.ErrAuthDenied},
		{"no error", cancelled, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ignoreInterrupt(tt.ctx, tt.err); !errors.Is(got, tt.want) || (tt.want == nil && got != nil) {
				t.Errorf("ignoreInterrupt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoginPromptsGoToLog(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	w := loginPrompts(zap.New(obs))

	fmt.Fprintln(w, "Opening browser for Spotify authentication...")
	fmt.Fprintf(w, "Please open this URL in your browser:\n\n%s\n\n", "https://accounts.spotify.com/authorize")
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var messages []string
	for _, e := range logs.All() {
		if e.LoggerName != "auth" {
			t.Errorf("logger name = %q, want auth", e.LoggerName)
		}
		messages = append(messages, e.Message)
	}
	want := []string{
		"Opening browser for Spotify authentication...",
		"Please open this URL in your browser:",
		"",
		"https://accounts.spotify.com/authorize",
		"",
	}
	if len(messages) != len(want) {
		t.Fatalf("logged %q, want %q", messages, want)
	}
	for i := range want {
		if messages[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, messages[i], want[i])
		}
	}
}
