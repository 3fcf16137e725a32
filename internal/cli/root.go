package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/artwall/internal/config"
	awerrors "github.com/tessro/artwall/internal/errors"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg *config.Config
)

// Command annotations controlling config loading.
const (
	annotationConfig = "artwall/config"
	// configOptional falls back to defaults when no file exists.
	configOptional = "optional"
	// configSkip does not load a config at all.
	configSkip = "skip"
)

var rootCmd = &cobra.Command{
	Use:   "artwall",
	Short: "Show your Spotify album art full-screen",
	Long: `Artwall polls Spotify for the track you are listening to and shows its
album art full-screen over a gradient built from the art's colors.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd.Annotations[annotationConfig])
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.artwallrc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig(mode string) error {
	if mode == configSkip {
		return nil
	}

	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		if mode == configOptional && errors.Is(err, awerrors.ErrConfigNotFound) {
			cfg = config.Default()
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	return nil
}

// Execute runs the root command and exits 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, awerrors.Format(err))
		os.Exit(1)
	}
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}
