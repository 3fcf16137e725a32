package display

import (
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tessro/artwall/internal/core"
)

// DefaultFPS is the gradient animation frame rate.
const DefaultFPS = 12

// UpdateMsg delivers a new record to a running display.
type UpdateMsg struct {
	Update *core.Update
}

type frameMsg time.Time

type artMsg struct {
	path string
	img  image.Image
	err  error
}

// Model renders the album art over an animated gradient.
type Model struct {
	update   *core.Update
	gradient Gradient
	fps      int

	img    image.Image
	imgErr error

	// art caches the rendered art for the current image and size.
	art     []string
	artCols int
	artRows int

	width  int
	height int
	phase  float64
	last   time.Time

	spinner  spinner.Model
	quitting bool
}

// NewModel creates a model showing the initial update.
func NewModel(initial *core.Update, fps int) Model {
	if fps <= 0 {
		fps = DefaultFPS
	}
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		update:   initial,
		gradient: NewGradient(initial.Colors),
		fps:      fps,
		spinner:  s,
	}
}

// Current returns the update being shown.
func (m Model) Current() *core.Update {
	return m.update
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadArt(m.update.ImagePath), m.frame(), m.spinner.Tick)
}

func (m Model) frame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func loadArt(path string) tea.Cmd {
	return func() tea.Msg {
		img, err := loadImage(path)
		return artMsg{path: path, img: img, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rerenderArt()

	case UpdateMsg:
		if msg.Update == nil {
			return m, nil
		}
		changed := m.update == nil || msg.Update.ImagePath != m.update.ImagePath
		m.update = msg.Update
		m.gradient = NewGradient(msg.Update.Colors)
		if changed {
			return m, loadArt(msg.Update.ImagePath)
		}

	case artMsg:
		// Drop art for a record that has since been replaced.
		if m.update == nil || msg.path != m.update.ImagePath {
			return m, nil
		}
		m.img, m.imgErr = msg.img, msg.err
		m.rerenderArt()

	case frameMsg:
		now := time.Time(msg)
		if !m.last.IsZero() {
			m.phase += now.Sub(m.last).Seconds() * speed(m.update.AudioFeatures)
		}
		m.last = now
		return m, m.frame()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) rerenderArt() {
	m.artCols, m.artRows = artSize(m.width, m.height, captionRows+2)
	m.art = renderArt(m.img, m.artCols, m.artRows)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting || m.width == 0 || m.height == 0 {
		return ""
	}

	// Vertical layout: top padding, art, a gap, caption, bottom padding.
	contentRows := m.artRows + 1 + captionRows
	top := (m.height - contentRows) / 2
	if top < 0 {
		top = 0
	}

	lines := make([]string, 0, m.height)
	for y := 0; y < m.height; y++ {
		bg := m.gradient.At(float64(y)/float64(m.height)*0.5 + m.phase)

		switch {
		case y >= top && y < top+m.artRows:
			lines = append(lines, m.artLine(y-top, bg))
		case y == top+m.artRows+1:
			lines = append(lines, renderCaption(m.update.TrackInfo, m.update.AudioFeatures, m.width, bg)...)
			y += captionRows - 1
		default:
			lines = append(lines, fill(m.width, bg))
		}
	}
	if len(lines) > m.height {
		lines = lines[:m.height]
	}
	return strings.Join(lines, "\n")
}

// artLine renders one row of the art area, centered over bg.
func (m Model) artLine(row int, bg colorful.Color) string {
	left := (m.width - m.artCols) / 2
	right := m.width - m.artCols - left

	var mid string
	switch {
	case row < len(m.art):
		mid = m.art[row]
	case row == m.artRows/2:
		mid = m.placeholder(bg)
	default:
		mid = fill(m.artCols, bg)
	}
	return fill(left, bg) + mid + fill(right, bg)
}

// placeholder is shown in the art area until the image decodes.
func (m Model) placeholder(bg colorful.Color) string {
	text := m.spinner.View() + " loading album art"
	if m.imgErr != nil {
		text = "album art unavailable"
	}
	return lipgloss.NewStyle().
		Foreground(TextColor(bg)).
		Background(hex(bg)).
		Inline(true).
		Width(m.artCols).
		MaxWidth(m.artCols).
		Align(lipgloss.Center).
		Render(text)
}

func fill(width int, bg colorful.Color) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(hex(bg)).Render(strings.Repeat(" ", width))
}
