package artwork

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	colorextractor "github.com/marekm4/color-extractor"

	"github.com/tessro/artwall/internal/core"
)

// swatchRole describes the saturation and lightness a role looks for.
type swatchRole struct {
	name                            string
	minLight, targetLight, maxLight float64
	minSat, targetSat, maxSat       float64
}

// swatchRoles is the order palette colors are taken in.
var swatchRoles = []swatchRole{
	{"Vibrant", 0.3, 0.5, 0.7, 0.35, 1, 1},
	{"Muted", 0.3, 0.5, 0.7, 0, 0.3, 0.4},
	{"DarkVibrant", 0, 0.26, 0.45, 0.35, 1, 1},
	{"DarkMuted", 0, 0.26, 0.45, 0, 0.3, 0.4},
	{"LightVibrant", 0.55, 0.74, 1, 0.35, 1, 1},
	{"LightMuted", 0.55, 0.74, 1, 0, 0.3, 0.4},
}

// Score weights. Lightness matters most, then saturation, then how
// dominant the candidate is in the image.
const (
	weightSat        = 3
	weightLight      = 6.5
	weightPopulation = 0.5
)

// VibrantExtractor picks colors by swatch role from the image's dominant
// colors. Roles no candidate fits are skipped and a candidate fills at most
// one role.
type VibrantExtractor struct{}

type candidate struct {
	color      colorful.Color
	sat, light float64
	population float64
	used       bool
}

// Extract implements Extractor.
func (VibrantExtractor) Extract(img image.Image) ([]core.Color, error) {
	extracted := colorextractor.ExtractColors(img)

	candidates := make([]*candidate, 0, len(extracted))
	for i, c := range extracted {
		cf, ok := colorful.MakeColor(c)
		if !ok {
			continue
		}
		_, s, l := cf.Hsl()
		candidates = append(candidates, &candidate{
			color: cf,
			sat:   s,
			light: l,
			// Colors come most dominant first.
			population: 1 - float64(i)/float64(len(extracted)),
		})
	}

	colors := make([]core.Color, 0, len(swatchRoles))
	for _, role := range swatchRoles {
		if best := role.pick(candidates); best != nil {
			best.used = true
			colors = append(colors, core.FromColor(best.color))
		}
	}
	return colors, nil
}

// pick returns the unused candidate that best fits the role, or nil.
func (r swatchRole) pick(candidates []*candidate) *candidate {
	var best *candidate
	bestScore := math.Inf(-1)
	for _, c := range candidates {
		if c.used || c.sat < r.minSat || c.sat > r.maxSat || c.light < r.minLight || c.light > r.maxLight {
			continue
		}
		score := weightSat*(1-math.Abs(c.sat-r.targetSat)) +
			weightLight*(1-math.Abs(c.light-r.targetLight)) +
			weightPopulation*c.population
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}
