package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tessro/artwall/internal/core"
	"github.com/tessro/artwall/internal/display"
)

var displayRecord string

var displayCmd = &cobra.Command{
	Use:    "display [--record path] -- <art> <palette> <info> <features>",
	Short:  "Show album art full-screen (started by run)",
	Hidden: true,
	Long: `Show album art full-screen over an animated gradient.

The four start parameters are the art path, the palette as a JSON array of
RGB triples, the track info JSON and the audio features JSON ("null" when
unknown). Later updates are read from the record file whenever it changes.`,
	Annotations: map[string]string{annotationConfig: configOptional},
	RunE:        runDisplay,
}

func init() {
	displayCmd.Flags().StringVar(&displayRecord, "record", "", "record file to watch for updates (default from config)")
	rootCmd.AddCommand(displayCmd)
}

func runDisplay(cmd *cobra.Command, args []string) error {
	initial, err := display.ParseStartArgs(args)
	if err != nil {
		return err
	}

	record := displayRecord
	if record == "" {
		record = cfg.Display.Record
	}

	// The screen belongs to the display, so logs only go to the file.
	logger, err := newLogger(cfg, "display", nil, defaultLogFile(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := tea.NewProgram(display.NewModel(initial, cfg.Display.FPS), tea.WithAltScreen(), tea.WithContext(ctx))

	listener := display.NewListener(record, logger.Named("listener"))
	listenCtx, cancelListen := context.WithCancel(ctx)
	defer cancelListen()
	go func() {
		err := listener.Run(listenCtx, func(u *core.Update) {
			p.Send(display.UpdateMsg{Update: u})
		})
		if err != nil && listenCtx.Err() == nil {
			logger.Error("record listener stopped", zap.Error(err))
		}
	}()

	logger.Info("display started",
		zap.String("record", record),
		zap.String("title", initial.TrackInfo.Track),
	)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("display failed: %w", err)
	}
	logger.Info("display closed")
	return nil
}
