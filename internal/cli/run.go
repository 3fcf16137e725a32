package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"

	"github.com/tessro/artwall/internal/artwork"
	"github.com/tessro/artwall/internal/poller"
	"github.com/tessro/artwall/internal/publish"
	"github.com/tessro/artwall/internal/spotify/auth"
	"github.com/tessro/artwall/internal/spotify/client"
	"github.com/tessro/artwall/internal/spotify/player"
	"github.com/tessro/artwall/internal/tracker"
)

var (
	runInterval  time.Duration
	runNoEmoji   bool
	runTimestamp bool
	runFormat    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll Spotify and show the album art",
	Long: `Poll Spotify for the current track and keep the album art display up to date.

Every poll asks for the currently playing track, falling back to the most
recently played one. When the track changes its art is downloaded, a color
palette is extracted and the display is updated. The display is started on
the first track and restarted on the next change if it was closed.

Unless display.terminal is set, the display takes over this terminal and
logs go to the log file.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().DurationVarP(&runInterval, "interval", "i", 0, "poll interval (default from config, 30s)")
	runCmd.Flags().BoolVar(&runNoEmoji, "no-emoji", false, "disable emoji output")
	runCmd.Flags().BoolVarP(&runTimestamp, "timestamp", "t", false, "show timestamps")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "", "custom format template for track changes")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A display in this terminal owns the screen, so the poller stays quiet.
	sharedTerminal := len(cfg.Display.Terminal) == 0
	var console io.Writer = os.Stderr
	var out io.Writer = os.Stdout
	logFile := cfg.Log.File
	if sharedTerminal {
		console, out = nil, nil
		logFile = defaultLogFile(cfg)
		fmt.Fprintf(os.Stderr, "Logging to %s\n", logFile)
	}

	logger, err := newLogger(cfg, "poller", console, logFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	storage, err := tokenStorage()
	if err != nil {
		return err
	}
	authenticator := auth.NewAuthenticator(authConfig(), os.Stderr)
	session := client.New(authenticator, storage, logger.Named("spotify"))
	if err := session.Open(ctx); err != nil {
		return ignoreInterrupt(ctx, err)
	}
	if sharedTerminal {
		// Later logins would draw over the display.
		prompts := loginPrompts(logger)
		defer func() { _ = prompts.Close() }()
		authenticator.Out = prompts
	}

	extractor, err := artwork.NewExtractor(cfg.Palette.Extractor)
	if err != nil {
		return err
	}
	cache := artwork.NewCache(cfg.Cache.Dir, logger.Named("cache"))

	launcher := &publish.ExecLauncher{
		Terminal:   cfg.Display.Terminal,
		ConfigPath: cfg.Path(),
	}
	if sharedTerminal {
		launcher.Stdin, launcher.Stdout = os.Stdin, os.Stdout
	}
	publisher := publish.NewPublisher(cfg.Display.Record, launcher, logger.Named("publish"))
	// Quitting a display that owns this terminal stops the run.
	publisher.StopOnClose = sharedTerminal
	defer func() {
		if err := publisher.Shutdown(); err != nil {
			logger.Warn("display shutdown failed", zap.Error(err))
		}
	}()

	interval := runInterval
	if interval == 0 {
		interval = time.Duration(cfg.Poll.Interval) * time.Second
	}

	p := poller.New(poller.Options{
		NewLookup: func() poller.Lookup {
			return player.New(session.Cycle())
		},
		Downloader: artwork.NewDownloader(cache, logger.Named("download")),
		Extractor:  extractor,
		Publisher:  publisher,
		Cache:      cache,
		Interval:   interval,
		Out:        out,
		Formatter: tracker.NewFormatter(
			tracker.WithEmoji(!runNoEmoji),
			tracker.WithTimestamp(runTimestamp),
			tracker.WithTemplate(runFormat),
		),
		Logger: logger,
		Quit:   publisher.Closed(),
	})

	return ignoreInterrupt(ctx, p.Run(ctx))
}

// ignoreInterrupt drops errors caused by the operator interrupting ctx.
func ignoreInterrupt(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// loginPrompts sends Login's prompts to the log, one entry per line.
func loginPrompts(logger *zap.Logger) *zapio.Writer {
	return &zapio.Writer{Log: logger.Named("auth"), Level: zapcore.InfoLevel}
}

// authConfig builds the OAuth settings from the loaded config.
func authConfig() *auth.Config {
	c := auth.NewConfig(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	if cfg.Spotify.RedirectURI != "" {
		c.RedirectURI = cfg.Spotify.RedirectURI
	}
	return c
}

// tokenStorage opens the token file named in the config.
func tokenStorage() (*auth.TokenStorage, error) {
	storage, err := auth.NewTokenStorage(cfg.Spotify.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}
	return storage, nil
}
