package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/tessro/artwall/internal/config"
	"github.com/tessro/artwall/internal/logging"
)

// Table provides a simple table formatter.
type Table struct {
	w *tabwriter.Writer
}

// NewTableWriter creates a table writing to out.
func NewTableWriter(out io.Writer, headers ...string) *Table {
	t := &Table{
		w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0),
	}
	if len(headers) > 0 {
		_, _ = t.w.Write([]byte(strings.Join(headers, "\t") + "\n"))
	}
	return t
}

// Row adds a row to the table.
func (t *Table) Row(values ...string) {
	_, _ = t.w.Write([]byte(strings.Join(values, "\t") + "\n"))
}

// Flush writes the table output.
func (t *Table) Flush() {
	_ = t.w.Flush()
}

// StatusIcon returns an icon for the given boolean status.
func StatusIcon(active bool) string {
	if active {
		return "●"
	}
	return "○"
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newLogger builds the logger for a command. console may be nil to log to
// the file only.
func newLogger(c *config.Config, name string, console io.Writer, file string) (*zap.Logger, error) {
	level := c.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:   level,
		File:    file,
		Console: console,
		Name:    name,
	})
}

// defaultLogFile is used when the display shares the poller's terminal and
// console logging would draw over it.
func defaultLogFile(c *config.Config) string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(filepath.Dir(c.Display.Record), "artwall.log")
}
