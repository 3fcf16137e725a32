package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/artwall/internal/artwork"
	"github.com/tessro/artwall/internal/core"
	awerrors "github.com/tessro/artwall/internal/errors"
	"github.com/tessro/artwall/internal/spotify/client"
	"github.com/tessro/artwall/internal/tracker"
)

// DefaultInterval is the time between the end of one cycle and the start
// of the next.
const DefaultInterval = 30 * time.Second

// Lookup answers the Spotify queries of one poll cycle.
type Lookup interface {
	tracker.Source
	AudioFeatures(ctx context.Context, trackID string) (*core.AudioFeatures, error)
}

// Downloader fetches album art to a local file.
type Downloader interface {
	Download(ctx context.Context, trackID, url string) (string, error)
}

// Publisher delivers an update to the display.
type Publisher interface {
	Publish(u *core.Update) error
}

// Cache retains the published art and prunes the rest.
type Cache interface {
	Commit(path string) int
}

// Options configures a Poller.
type Options struct {
	// NewLookup returns the lookup for a new cycle.
	NewLookup  func() Lookup
	Downloader Downloader
	Extractor  artwork.Extractor
	Publisher  Publisher
	Cache      Cache
	Interval   time.Duration
	// Out receives a line per published track. Nil discards.
	Out       io.Writer
	Formatter *tracker.Formatter
	Logger    *zap.Logger
	// Quit, when closed, ends Run like a cancelled context.
	Quit <-chan struct{}
}

// Poller drives the fetch, download, palette and publish pipeline.
type Poller struct {
	opts     Options
	detector tracker.Detector
	logger   *zap.Logger
}

// New creates a poller.
func New(opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Formatter == nil {
		opts.Formatter = tracker.NewFormatter()
	}
	if opts.Extractor == nil {
		opts.Extractor = artwork.VibrantExtractor{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{opts: opts, logger: logger}
}

// LastTrackID returns the ID of the last published track.
func (p *Poller) LastTrackID() string {
	return p.detector.LastID()
}

// Run polls until ctx is cancelled or Quit closes, which returns nil. The
// next cycle is scheduled only after the previous one returns, so cycles
// never overlap.
// A denied authorization or a panic inside a cycle ends Run with an error.
func (p *Poller) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	p.logger.Info("polling started", zap.Duration("interval", p.opts.Interval))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("polling stopped")
			return nil
		case <-p.opts.Quit:
			p.logger.Info("display closed, polling stopped")
			return nil
		case <-timer.C:
		}

		if err := p.safeCycle(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("polling stopped")
				return nil
			}
			if fatal(err) {
				return err
			}
			p.logger.Error("poll cycle failed", zap.Error(err))
		}

		timer.Reset(p.opts.Interval)
	}
}

// errFault marks a panic recovered from a cycle.
var errFault = errors.New("poll cycle fault")

func fatal(err error) bool {
	return errors.Is(err, awerrors.ErrAuthDenied) || errors.Is(err, errFault)
}

func (p *Poller) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errFault, r)
		}
	}()
	return p.Cycle(ctx)
}

// Cycle runs one poll: fetch the track and, when it changed, download its
// art, extract the palette, publish the update and prune the cache. The
// last track ID only advances once the update is published.
func (p *Poller) Cycle(ctx context.Context) error {
	lookup := p.opts.NewLookup()

	track, origin, err := tracker.Fetch(ctx, lookup, p.logger)
	if err != nil {
		if errors.Is(err, awerrors.ErrNoTrack) {
			p.logger.Info("no current or recent track")
			return nil
		}
		if client.IsRateLimited(err) {
			p.logger.Info("rate limited by Spotify, skipping cycle", zap.Error(err))
			return nil
		}
		return err
	}

	event, changed := p.detector.Observe(track, origin)
	if !changed {
		p.logger.Debug("track unchanged", zap.String("track", track.ID))
		return nil
	}

	p.logger.Info("track changed",
		zap.String("track", track.ID),
		zap.String("previous", event.PreviousID),
		zap.Stringer("source", origin),
	)

	imagePath, err := p.opts.Downloader.Download(ctx, track.ID, artwork.SelectImageURL(track.Images))
	if err != nil {
		return fmt.Errorf("album art for %s: %w", track.ID, err)
	}

	colors := artwork.Palette(p.opts.Extractor, imagePath, p.logger)

	features, err := lookup.AudioFeatures(ctx, track.ID)
	if errors.Is(err, awerrors.ErrAuthDenied) {
		return err
	}
	if err != nil {
		p.logger.Info("audio features unavailable", zap.String("track", track.ID), zap.Error(err))
		features = nil
	}

	update := &core.Update{
		ImagePath:     imagePath,
		Colors:        colors,
		TrackInfo:     track.Info(),
		AudioFeatures: features,
	}
	if err := p.opts.Publisher.Publish(update); err != nil {
		return fmt.Errorf("publish %s: %w", track.ID, err)
	}
	p.detector.Commit(track.ID)

	fmt.Fprintln(p.opts.Out, p.opts.Formatter.Format(event))

	if p.opts.Cache != nil {
		p.opts.Cache.Commit(imagePath)
	}
	return nil
}
