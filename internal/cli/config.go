package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/tessro/artwall/internal/config"
	awerrors "github.com/tessro/artwall/internal/errors"
	"github.com/tessro/artwall/internal/wizard"
)

var configNoInput bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing artwall configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current configuration",
	Long:        `Display the current configuration values, including defaults.`,
	Annotations: map[string]string{annotationConfig: configOptional},
	RunE:        runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Show the configuration file path",
	Annotations: map[string]string{annotationConfig: configSkip},
	RunE:        runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:         "edit",
	Short:       "Edit configuration file",
	Long:        `Open the configuration file in your default editor.`,
	Annotations: map[string]string{annotationConfig: configSkip},
	RunE:        runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a new configuration file.

In a terminal this asks for the Spotify app credentials. With --no-input,
or when not attached to a terminal, a file with default values is written.`,
	Annotations: map[string]string{annotationConfig: configSkip},
	RunE:        runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Supported keys:
  spotify.client_id      Spotify client ID
  spotify.client_secret  Spotify client secret
  spotify.redirect_uri   OAuth redirect URI
  poll.interval          Seconds between polls
  palette.extractor      vibrant or dominant
  display.fps            Gradient frames per second
  display.record         Record file shared with the display
  cache.dir              Album art directory
  log.level              debug, info, warn or error
  log.file               Log file path

Examples:
  artwall config set poll.interval 15
  artwall config set palette.extractor dominant`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationConfig: configSkip},
	RunE:        runConfigSet,
}

// settableKeys maps config keys to whether their value is an integer.
var settableKeys = map[string]bool{
	"spotify.client_id":     false,
	"spotify.client_secret": false,
	"spotify.redirect_uri":  false,
	"poll.interval":         true,
	"palette.extractor":     false,
	"display.fps":           true,
	"display.record":        false,
	"cache.dir":             false,
	"log.level":             false,
	"log.file":              false,
}

func init() {
	configInitCmd.Flags().BoolVar(&configNoInput, "no-input", false, "write defaults without prompting")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return printJSON(cfg)
	}

	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := getConfigPath()
	_, err := os.Stat(path)
	exists := err == nil

	if JSONOutput() {
		return printJSON(map[string]interface{}{"path": path, "exists": exists})
	}
	fmt.Printf("%s %s\n", StatusIcon(exists), path)
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", configPath, awerrors.ErrConfigNotFound)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	newCfg := config.Default()
	prompted := false
	if wizard.CanInteract(!configNoInput && !JSONOutput()) {
		if err := wizard.RunSetup(newCfg); err != nil {
			return err
		}
		prompted = true
	}

	if err := config.Save(newCfg, configPath); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	}

	fmt.Printf("Created config file: %s\n", configPath)
	fmt.Println("\nNext steps:")
	if !prompted {
		fmt.Println("  - Set spotify.client_id and spotify.client_secret in the config file")
		fmt.Println("    or via ARTWALL_SPOTIFY_CLIENT_ID and ARTWALL_SPOTIFY_CLIENT_SECRET")
	}
	fmt.Println("  - Run 'artwall auth login' to authenticate with Spotify")
	fmt.Println("  - Run 'artwall run' to start the display")
	return nil
}

// getConfigPath returns the --config file, the first existing config file,
// or where a new one would be created.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if path := os.Getenv(config.EnvConfigPath); path != "" {
		return path
	}
	if c, err := config.Load(); err == nil {
		return c.Path()
	}
	return config.DefaultPath()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	isInt, ok := settableKeys[key]
	if !ok {
		return awerrors.WithSuggestion(
			fmt.Errorf("%w: unknown key %q", awerrors.ErrInvalidConfig, key),
			"Run 'artwall config set --help' for the supported keys.",
		)
	}

	configPath := getConfigPath()
	if strings.EqualFold(filepath.Ext(configPath), ".json") {
		return fmt.Errorf("config set only edits TOML files; edit %s directly", configPath)
	}

	rawConfig := map[string]interface{}{}
	if _, err := toml.DecodeFile(configPath, &rawConfig); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := rawConfig[section].(map[string]interface{})
	if !ok {
		sectionMap = make(map[string]interface{})
		rawConfig[section] = sectionMap
	}

	var typedValue interface{} = value
	if isInt {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", awerrors.ErrInvalidConfig, key)
		}
		typedValue = n
	}
	sectionMap[field] = typedValue

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(configPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(rawConfig); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}
