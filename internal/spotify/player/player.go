package player

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/tessro/artwall/internal/core"
	"github.com/tessro/artwall/internal/spotify/client"
)

// Caller runs a request against the Spotify API. *client.Cycle satisfies it.
type Caller interface {
	Do(ctx context.Context, fn func(client.API) error) error
}

// Player answers track lookups for one poll cycle.
type Player struct {
	caller Caller
}

// New creates a player bound to a poll cycle.
func New(c Caller) *Player {
	return &Player{caller: c}
}

// CurrentlyPlaying returns the track playing now, or nil when nothing is
// playing or the item is not a track (a podcast episode, an ad).
func (p *Player) CurrentlyPlaying(ctx context.Context) (*core.Track, error) {
	var playing *spotify.CurrentlyPlaying
	err := p.caller.Do(ctx, func(api client.API) error {
		var err error
		playing, err = api.PlayerCurrentlyPlaying(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("currently playing: %w", err)
	}

	if playing == nil || playing.Item == nil {
		return nil, nil
	}
	return convertTrack(playing.Item), nil
}

// RecentlyPlayed returns the most recently played track, or nil when the
// history is empty.
func (p *Player) RecentlyPlayed(ctx context.Context) (*core.Track, error) {
	var items []spotify.RecentlyPlayedItem
	err := p.caller.Do(ctx, func(api client.API) error {
		var err error
		items, err = api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: 1})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("recently played: %w", err)
	}
	if len(items) == 0 || items[0].Track.ID == "" {
		return nil, nil
	}

	// History items carry a simplified track without album art.
	id := items[0].Track.ID
	var full *spotify.FullTrack
	err = p.caller.Do(ctx, func(api client.API) error {
		var err error
		full, err = api.GetTrack(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", id, err)
	}
	return convertTrack(full), nil
}

// AudioFeatures returns tempo and energy data for a track, or nil when
// Spotify has none.
func (p *Player) AudioFeatures(ctx context.Context, trackID string) (*core.AudioFeatures, error) {
	var features []*spotify.AudioFeatures
	err := p.caller.Do(ctx, func(api client.API) error {
		var err error
		features, err = api.GetAudioFeatures(ctx, spotify.ID(trackID))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("audio features: %w", err)
	}
	if len(features) == 0 || features[0] == nil {
		return nil, nil
	}

	f := features[0]
	return &core.AudioFeatures{
		Tempo:        float64(f.Tempo),
		Energy:       float64(f.Energy),
		Danceability: float64(f.Danceability),
		Valence:      float64(f.Valence),
	}, nil
}

// convertTrack converts a Spotify track to a core track.
func convertTrack(t *spotify.FullTrack) *core.Track {
	if t == nil || t.ID == "" {
		return nil
	}

	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	images := make([]core.Image, len(t.Album.Images))
	for i, img := range t.Album.Images {
		images[i] = core.Image{
			URL:    img.URL,
			Width:  int(img.Width),
			Height: int(img.Height),
		}
	}

	return &core.Track{
		ID:      t.ID.String(),
		Title:   t.Name,
		Artists: artists,
		Album:   t.Album.Name,
		Images:  images,
	}
}
