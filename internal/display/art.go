package display

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// upperHalf draws the top pixel in the foreground and the bottom pixel in
// the background, giving two square-ish pixels per cell.
const upperHalf = "▀"

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// scale resizes img to w x h pixels.
func scale(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// renderArt renders img into rows x cols cells, two pixels per cell.
func renderArt(img image.Image, cols, rows int) []string {
	if img == nil || cols <= 0 || rows <= 0 {
		return nil
	}

	px := scale(img, cols, rows*2)
	lines := make([]string, rows)
	for y := 0; y < rows; y++ {
		var b strings.Builder
		for x := 0; x < cols; x++ {
			top := px.RGBAAt(x, y*2)
			bottom := px.RGBAAt(x, y*2+1)
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", top.R, top.G, top.B))).
				Background(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", bottom.R, bottom.G, bottom.B)))
			b.WriteString(style.Render(upperHalf))
		}
		lines[y] = b.String()
	}
	return lines
}

// artSize fits a square image into a width x height area, leaving
// reserved rows free. Returns the size in cells.
func artSize(width, height, reserved int) (cols, rows int) {
	rows = height - reserved
	if rows > width/2 {
		rows = width / 2
	}
	if rows < 0 {
		rows = 0
	}
	return rows * 2, rows
}
