package artwork

import (
	"image"

	colorextractor "github.com/marekm4/color-extractor"

	"github.com/tessro/artwall/internal/core"
)

// DominantExtractor returns the image's most common colors, most dominant
// first.
type DominantExtractor struct{}

// Extract implements Extractor.
func (DominantExtractor) Extract(img image.Image) ([]core.Color, error) {
	extracted := colorextractor.ExtractColors(img)

	colors := make([]core.Color, 0, len(extracted))
	for _, c := range extracted {
		colors = append(colors, core.FromColor(c))
	}
	return colors, nil
}
