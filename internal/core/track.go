package core

import "strings"

// Image is one rendition of a track's album art.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Track represents a Spotify track as seen by the poller.
type Track struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Album   string   `json:"album"`
	Images  []Image  `json:"images"`
}

// Artist returns the artist list joined for display.
func (t *Track) Artist() string {
	if t == nil {
		return ""
	}
	return strings.Join(t.Artists, ", ")
}

// Info returns the display metadata for the track.
func (t *Track) Info() TrackInfo {
	if t == nil {
		return TrackInfo{}
	}
	return TrackInfo{
		Track:  t.Title,
		Artist: t.Artist(),
		Album:  t.Album,
	}
}

// TrackInfo is the metadata shown next to the album art.
type TrackInfo struct {
	Track  string `json:"track"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// AudioFeatures holds optional audio analysis for a track.
type AudioFeatures struct {
	Tempo        float64 `json:"tempo"`
	Energy       float64 `json:"energy"`
	Danceability float64 `json:"danceability"`
	Valence      float64 `json:"valence"`
}
