package publish

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/tessro/artwall/internal/core"
)

// ExecLauncher starts the display by re-running the artwall binary with
// the hidden display subcommand.
type ExecLauncher struct {
	// Executable is the artwall binary. Empty means os.Executable.
	Executable string
	// Terminal optionally wraps the command, e.g. ["kitty", "--start-as=fullscreen", "-e"].
	Terminal []string
	// ConfigPath is forwarded as --config when set.
	ConfigPath string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Command builds the display command line.
func (l *ExecLauncher) Command(record string, u *core.Update) ([]string, error) {
	exe := l.Executable
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate artwall binary: %w", err)
		}
	}

	params, err := StartArgs(u)
	if err != nil {
		return nil, err
	}

	argv := append([]string{}, l.Terminal...)
	argv = append(argv, exe, "display", "--record", record)
	if l.ConfigPath != "" {
		argv = append(argv, "--config", l.ConfigPath)
	}
	argv = append(argv, "--")
	return append(argv, params...), nil
}

// Launch implements Launcher.
func (l *ExecLauncher) Launch(record string, u *core.Update) (Process, error) {
	argv, err := l.Command(record, u)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int                   { return p.cmd.Process.Pid }
func (p *execProcess) Wait() error                { return p.cmd.Wait() }
func (p *execProcess) Signal(sig os.Signal) error { return p.cmd.Process.Signal(sig) }
func (p *execProcess) Kill() error                { return p.cmd.Process.Kill() }
