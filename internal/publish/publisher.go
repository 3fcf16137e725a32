package publish

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/artwall/internal/core"
)

// DefaultGracePeriod is how long Shutdown waits after SIGTERM before
// killing the display.
const DefaultGracePeriod = 3 * time.Second

// Process is a running display process.
type Process interface {
	Pid() int
	Wait() error
	Signal(sig os.Signal) error
	Kill() error
}

// Launcher starts a display process showing u and watching record.
type Launcher interface {
	Launch(record string, u *core.Update) (Process, error)
}

// Publisher writes update records and keeps at most one display process
// alive.
type Publisher struct {
	record   string
	launcher Launcher
	logger   *zap.Logger

	// GracePeriod bounds Shutdown's wait after SIGTERM.
	GracePeriod time.Duration
	// StopOnClose makes a clean display exit final: Closed is closed and
	// later publishes only write the record. Used when the display shares
	// the poller's terminal, where quitting it is how the operator stops.
	StopOnClose bool

	mu     sync.Mutex
	proc   Process
	done   chan struct{}
	closed chan struct{}
	ended  bool
}

// NewPublisher creates a publisher for the record at path.
func NewPublisher(record string, launcher Launcher, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		record:      record,
		launcher:    launcher,
		logger:      logger,
		GracePeriod: DefaultGracePeriod,
		closed:      make(chan struct{}),
	}
}

// Closed is closed once a display exits cleanly under StopOnClose.
func (p *Publisher) Closed() <-chan struct{} {
	return p.closed
}

// Publish overwrites the record and starts a display if none is running.
// A running display picks the change up from the record on its own.
func (p *Publisher) Publish(u *core.Update) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if err := WriteRecord(p.record, u); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.proc != nil {
		p.logger.Debug("display running, record updated", zap.Int("pid", p.proc.Pid()))
		return nil
	}
	if p.ended {
		p.logger.Debug("display closed, record updated")
		return nil
	}

	proc, err := p.launcher.Launch(p.record, u)
	if err != nil {
		return fmt.Errorf("failed to start display: %w", err)
	}
	p.logger.Info("started display", zap.Int("pid", proc.Pid()))

	done := make(chan struct{})
	p.proc = proc
	p.done = done
	go p.wait(proc, done)
	return nil
}

// wait clears the handle once the process exits, so the next Publish
// starts a fresh display unless StopOnClose ended publishing.
func (p *Publisher) wait(proc Process, done chan struct{}) {
	err := proc.Wait()

	p.mu.Lock()
	if p.proc == proc {
		p.proc = nil
		p.done = nil
	}
	closing := err == nil && p.StopOnClose && !p.ended
	if closing {
		p.ended = true
	}
	p.mu.Unlock()
	close(done)
	if closing {
		close(p.closed)
	}

	if err != nil {
		p.logger.Warn("display exited", zap.Int("pid", proc.Pid()), zap.Error(err))
		return
	}
	p.logger.Info("display exited", zap.Int("pid", proc.Pid()))
}

// Running reports whether a display process is alive.
func (p *Publisher) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proc != nil
}

// Shutdown terminates the display, if any: SIGTERM first, then a kill
// after the grace period.
func (p *Publisher) Shutdown() error {
	p.mu.Lock()
	proc, done := p.proc, p.done
	p.mu.Unlock()

	if proc == nil {
		return nil
	}

	p.logger.Info("stopping display", zap.Int("pid", proc.Pid()))
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			<-done
			return nil
		}
		// SIGTERM is not deliverable everywhere; fall through to kill.
		p.logger.Debug("SIGTERM failed", zap.Error(err))
		return p.kill(proc, done)
	}

	grace := p.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	select {
	case <-done:
		return nil
	case <-time.After(grace):
		return p.kill(proc, done)
	}
}

func (p *Publisher) kill(proc Process, done chan struct{}) error {
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill display: %w", err)
	}
	<-done
	return nil
}
