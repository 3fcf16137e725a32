package core

import (
	"encoding/json"
	"fmt"
	"image/color"
)

// Color is an RGB triple. It encodes as a JSON array [r, g, b].
type Color [3]uint8

// RGB builds a Color from its components.
func RGB(r, g, b uint8) Color {
	return Color{r, g, b}
}

// FromColor converts any color.Color, dropping alpha.
func FromColor(c color.Color) Color {
	r, g, b, _ := c.RGBA()
	return Color{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// Update is the shared record written by the poller and read by the display.
// It is always overwritten as a whole.
type Update struct {
	ImagePath     string         `json:"imagePath"`
	Colors        []Color        `json:"colors"`
	TrackInfo     TrackInfo      `json:"trackInfo"`
	AudioFeatures *AudioFeatures `json:"audioFeatures"`
}

// Validate reports whether the record carries enough to render.
func (u *Update) Validate() error {
	if u.ImagePath == "" {
		return fmt.Errorf("update has no image path")
	}
	if len(u.Colors) == 0 {
		return fmt.Errorf("update has no colors")
	}
	return nil
}

// DecodeUpdate parses a record. A truncated or partially written record
// returns an error.
func DecodeUpdate(data []byte) (*Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to parse update record: %w", err)
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return &u, nil
}
