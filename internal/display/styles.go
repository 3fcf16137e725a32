package display

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Text colors used over the gradient.
var (
	Light = lipgloss.Color("#F9FAFB")
	Dark  = lipgloss.Color("#111827")
)

// Caption text styles. Foreground and background are set per frame.
var (
	Title = lipgloss.NewStyle().
		Bold(true)

	Subtitle = lipgloss.NewStyle()

	Dim = lipgloss.NewStyle().
		Faint(true)
)

// TextColor picks light or dark text for legibility over bg.
func TextColor(bg colorful.Color) lipgloss.Color {
	l, _, _ := bg.Lab()
	if l > 0.6 {
		return Dark
	}
	return Light
}

// hex converts a blended color to a lipgloss color.
func hex(c colorful.Color) lipgloss.Color {
	return lipgloss.Color(c.Clamped().Hex())
}

// Bar renders a meter of width cells filled to fraction.
func Bar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return repeat("━", filled) + repeat("─", width-filled)
}

func repeat(s string, n int) string {
	result := ""
	for i := 0; i < n; i++ {
		result += s
	}
	return result
}
