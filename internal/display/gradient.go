package display

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tessro/artwall/internal/core"
)

// Gradient cycles smoothly through a palette.
type Gradient struct {
	stops []colorful.Color
}

// NewGradient builds a gradient from palette colors. An empty palette
// yields a black gradient.
func NewGradient(colors []core.Color) Gradient {
	stops := make([]colorful.Color, 0, len(colors))
	for _, c := range colors {
		stops = append(stops, colorful.Color{
			R: float64(c[0]) / 255,
			G: float64(c[1]) / 255,
			B: float64(c[2]) / 255,
		})
	}
	return Gradient{stops: stops}
}

// At returns the color at position t. The gradient wraps, so t and t+1
// give the same color.
func (g Gradient) At(t float64) colorful.Color {
	n := len(g.stops)
	switch n {
	case 0:
		return colorful.Color{}
	case 1:
		return g.stops[0]
	}

	t -= math.Floor(t)
	pos := t * float64(n)
	i := int(pos) % n
	frac := pos - math.Floor(pos)
	if frac == 0 {
		return g.stops[i]
	}
	return g.stops[i].BlendLuv(g.stops[(i+1)%n], frac).Clamped()
}

// speed returns gradient cycles per second. With a known tempo the
// gradient completes one cycle every 32 beats.
func speed(features *core.AudioFeatures) float64 {
	const base = 0.05
	if features == nil || features.Tempo <= 0 {
		return base
	}
	s := features.Tempo / 60 / 32
	if features.Energy > 0 {
		s *= 0.5 + features.Energy
	}
	return s
}
