package display

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/tessro/artwall/internal/core"
)

// DefaultPollInterval is how often the listener stats the record when
// file events are missed.
const DefaultPollInterval = 2 * time.Second

// Listener watches the shared update record and hands every new version
// to a callback.
type Listener struct {
	path     string
	interval time.Duration
	logger   *zap.Logger

	lastMod  time.Time
	lastSize int64
}

// NewListener creates a listener for the record at path.
func NewListener(path string, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		path:     filepath.Clean(path),
		interval: DefaultPollInterval,
		logger:   logger,
	}
}

// SetPollInterval changes the fallback polling period.
func (l *Listener) SetPollInterval(d time.Duration) {
	if d > 0 {
		l.interval = d
	}
}

// Run watches until ctx is cancelled. It watches the file and its
// directory, and also polls the modification time, since file events are
// not delivered reliably everywhere. Records that fail to parse are
// skipped until the next change.
func (l *Listener) Run(ctx context.Context, send func(*core.Update)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		l.logger.Warn("file watch unavailable, polling only", zap.Error(err))
	} else {
		defer watcher.Close()
		l.watch(watcher)
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	// Catch writes that landed before the watch was set up.
	l.check(send)

	var events <-chan fsnotify.Event
	var errs <-chan error
	if watcher != nil {
		events = watcher.Events
		errs = watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != l.path {
				continue
			}
			if ev.Has(fsnotify.Create) {
				// The record was replaced; watch the new file.
				_ = watcher.Add(l.path)
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				l.check(send)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			l.logger.Debug("file watch error", zap.Error(err))
		case <-ticker.C:
			l.check(send)
		}
	}
}

func (l *Listener) watch(w *fsnotify.Watcher) {
	if err := w.Add(filepath.Dir(l.path)); err != nil {
		l.logger.Warn("failed to watch record directory", zap.Error(err))
	}
	if err := w.Add(l.path); err != nil {
		l.logger.Debug("failed to watch record file", zap.Error(err))
	}
}

// check reads the record if its modification time or size changed.
func (l *Listener) check(send func(*core.Update)) {
	info, err := os.Stat(l.path)
	if err != nil {
		return
	}
	if info.ModTime().Equal(l.lastMod) && info.Size() == l.lastSize {
		return
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return
	}
	u, err := core.DecodeUpdate(data)
	if err != nil {
		// Probably caught mid-write; wait for the next change.
		l.logger.Debug("skipping unreadable record", zap.Error(err))
		return
	}

	l.lastMod = info.ModTime()
	l.lastSize = info.Size()
	l.logger.Info("record changed", zap.String("image", u.ImagePath))
	send(u)
}
