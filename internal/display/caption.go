package display

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tessro/artwall/internal/core"
)

// captionRows is the number of screen rows the caption uses.
const captionRows = 4

// renderCaption renders the track details centered over bg.
func renderCaption(info core.TrackInfo, features *core.AudioFeatures, width int, bg colorful.Color) []string {
	fg := TextColor(bg)
	line := func(style lipgloss.Style, s string) string {
		return style.
			Foreground(fg).
			Background(hex(bg)).
			Inline(true).
			Width(width).
			MaxWidth(width).
			Align(lipgloss.Center).
			Render(s)
	}

	return []string{
		line(Title, info.Track),
		line(Subtitle, info.Artist),
		line(Dim, info.Album),
		line(Dim, featureLine(features)),
	}
}

// featureLine summarizes tempo and energy, or is empty without features.
func featureLine(f *core.AudioFeatures) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%.0f BPM  energy %s", f.Tempo, Bar(f.Energy, 10))
}
