package wizard

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal returns true if both stdin and stdout are terminals.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// CanInteract returns true if forms can be shown. enabled is the
// caller's opt-in, e.g. the inverse of a --no-input flag.
func CanInteract(enabled bool) bool {
	return enabled && IsTerminal()
}
