package tracker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/artwall/internal/core"
	awerrors "github.com/tessro/artwall/internal/errors"
)

// Source looks up tracks. *player.Player satisfies it.
type Source interface {
	CurrentlyPlaying(ctx context.Context) (*core.Track, error)
	RecentlyPlayed(ctx context.Context) (*core.Track, error)
}

// Origin says which lookup produced a track.
type Origin int

const (
	OriginPlaying Origin = iota
	OriginRecent
)

func (o Origin) String() string {
	if o == OriginRecent {
		return "recently played"
	}
	return "currently playing"
}

// Fetch returns the current track, falling back to the most recently
// played one when nothing is playing or the lookup fails. Authentication
// failures abort immediately. Returns ErrNoTrack when neither lookup
// finds a track.
func Fetch(ctx context.Context, src Source, logger *zap.Logger) (*core.Track, Origin, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	track, err := src.CurrentlyPlaying(ctx)
	switch {
	case err == nil && track != nil:
		return track, OriginPlaying, nil
	case err != nil && fatal(ctx, err):
		return nil, OriginPlaying, err
	case err != nil:
		logger.Info("currently playing lookup failed, trying history", zap.Error(err))
	default:
		logger.Debug("nothing playing, trying history")
	}

	recent, rerr := src.RecentlyPlayed(ctx)
	if rerr != nil {
		return nil, OriginRecent, rerr
	}
	if recent == nil {
		if err != nil {
			return nil, OriginRecent, err
		}
		return nil, OriginRecent, awerrors.ErrNoTrack
	}
	return recent, OriginRecent, nil
}

// fatal reports errors that make the fallback pointless.
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, awerrors.ErrNotAuthenticated) ||
		errors.Is(err, awerrors.ErrAuthDenied)
}

// EventType represents the kind of change observed.
type EventType int

const (
	EventTrackChange EventType = iota
	EventRecentTrack
)

// Event describes a detected track change.
type Event struct {
	Type       EventType
	Timestamp  time.Time
	PreviousID string
	Current    *core.Track
}

// Detector remembers the last published track ID. Equality is by ID only.
type Detector struct {
	lastID string
}

// LastID returns the last committed track ID, or "" before the first.
func (d *Detector) LastID() string {
	return d.lastID
}

// Changed reports whether track differs from the last committed one.
// The first track ever seen is always a change; nil never is.
func (d *Detector) Changed(track *core.Track) bool {
	if track == nil || track.ID == "" {
		return false
	}
	return track.ID != d.lastID
}

// Observe returns a change event for track, or false when it matches the
// last committed ID. It does not commit.
func (d *Detector) Observe(track *core.Track, origin Origin) (Event, bool) {
	if !d.Changed(track) {
		return Event{}, false
	}

	eventType := EventTrackChange
	if origin == OriginRecent {
		eventType = EventRecentTrack
	}
	return Event{
		Type:       eventType,
		Timestamp:  time.Now(),
		PreviousID: d.lastID,
		Current:    track,
	}, true
}

// Commit records id as published. Call it only after the update record
// was written, so a failed cycle is retried on the next tick.
func (d *Detector) Commit(id string) {
	if id != "" {
		d.lastID = id
	}
}
