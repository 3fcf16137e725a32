package artwork

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"go.uber.org/zap"

	"github.com/tessro/artwall/internal/core"
)

const (
	// MinColors is the smallest palette handed to the display.
	MinColors = 4
	// MaxColors is the largest palette handed to the display.
	MaxColors = 6
)

// FallbackPalette is used when extraction fails.
var FallbackPalette = []core.Color{
	core.RGB(255, 0, 0),
	core.RGB(0, 255, 0),
	core.RGB(0, 0, 255),
	core.RGB(255, 255, 0),
}

// Extractor pulls representative colors out of an image, most important
// first.
type Extractor interface {
	Extract(img image.Image) ([]core.Color, error)
}

// NewExtractor returns the extractor for a palette.extractor setting.
func NewExtractor(name string) (Extractor, error) {
	switch name {
	case "", "vibrant":
		return VibrantExtractor{}, nil
	case "dominant":
		return DominantExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown palette extractor %q", name)
	}
}

// Palette extracts colors from the image at path. It never returns fewer
// than MinColors or more than MaxColors; on any failure it returns a copy
// of FallbackPalette.
func Palette(ex Extractor, path string, logger *zap.Logger) []core.Color {
	if logger == nil {
		logger = zap.NewNop()
	}

	colors, err := extractFile(ex, path)
	if err != nil {
		logger.Info("palette extraction failed, using fallback", zap.String("path", path), zap.Error(err))
		return fallback()
	}
	if len(colors) == 0 {
		logger.Info("palette extraction found no colors, using fallback", zap.String("path", path))
		return fallback()
	}
	return normalize(colors)
}

func extractFile(ex Extractor, path string) ([]core.Color, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return ex.Extract(img)
}

// normalize doubles short palettes until they reach MinColors, then caps
// them at MaxColors.
func normalize(colors []core.Color) []core.Color {
	out := append([]core.Color(nil), colors...)
	for len(out) < MinColors {
		out = append(out, out...)
	}
	if len(out) > MaxColors {
		out = out[:MaxColors]
	}
	return out
}

func fallback() []core.Color {
	return append([]core.Color(nil), FallbackPalette...)
}
