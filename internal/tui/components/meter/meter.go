// Package meter renders a live recording indicator: elapsed time above a
// waveform of recent input levels.
package meter

import (
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/salcon83/lifebooks-ai/internal/tui/style"
	"github.com/salcon83/lifebooks-ai/pkg/uictl"
)

// Eight fill levels, bottom to top. Index 0 is empty.
const blockChars = " ▁▂▃▄▅▆▇█"

const frameInterval = 50 * time.Millisecond

// TickMsg triggers a redraw.
type TickMsg struct{}

// Model reads samples from a Levels source and an elapsed counter from a Dial.
// Columns run oldest to newest, left to right.
type Model struct {
	levels  uictl.Levels[int16]
	elapsed uictl.Dial[int]
	format  func(int) string
	width   int
	height  int
	running bool
}

// New creates a meter. format renders the elapsed seconds.
func New(levels uictl.Levels[int16], elapsed uictl.Dial[int], format func(int) string, width, height int) Model {
	return Model{
		levels:  levels,
		elapsed: elapsed,
		format:  format,
		width:   max(width, 1),
		height:  max(height, 1),
	}
}

// Start begins the redraw loop.
func (m Model) Start() (Model, tea.Cmd) {
	if m.running {
		return m, nil
	}
	m.running = true

	return m, m.tick()
}

// Stop ends the redraw loop after the next frame.
func (m Model) Stop() Model {
	m.running = false
	return m
}

// Running reports whether the meter is animating.
func (m Model) Running() bool {
	return m.running
}

// Resize sets the waveform width.
func (m Model) Resize(width int) Model {
	m.width = max(width, 1)
	return m
}

// Update keeps the redraw loop going while running.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(TickMsg); ok && m.running {
		return m, m.tick()
	}

	return m, nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the indicator line and the waveform.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(style.Recording.Render("● REC"))
	if m.elapsed != nil && m.format != nil {
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render(m.format(m.elapsed.Read())))
	}
	sb.WriteString("\n")

	var samples []int16
	if m.levels != nil {
		samples = m.levels.Read()
	}

	if len(samples) == 0 {
		sb.WriteString(m.baseline())
	} else {
		sb.WriteString(m.waveform(samples))
	}

	return sb.String()
}

func (m Model) waveform(samples []int16) string {
	cols := columnLevels(samples, m.width, m.height*8)
	runes := []rune(blockChars)

	rows := make([]string, 0, m.height)
	for row := range m.height {
		// Row 0 is the top.
		floor := (m.height - 1 - row) * 8

		var line strings.Builder
		for _, level := range cols {
			line.WriteRune(runes[min(max(level-floor, 0), 8)])
		}
		rows = append(rows, style.Progress.Render(line.String()))
	}

	return strings.Join(rows, "\n")
}

func (m Model) baseline() string {
	rows := make([]string, 0, m.height)
	for row := range m.height {
		fill := " "
		if row == m.height-1 {
			fill = "▁"
		}
		rows = append(rows, style.Muted.Render(strings.Repeat(fill, m.width)))
	}

	return strings.Join(rows, "\n")
}

// columnLevels buckets samples into width columns and maps each bucket's
// peak onto 0..top.
func columnLevels(samples []int16, width, top int) []int {
	levels := make([]int, width)
	bucket := max(1, len(samples)/width)

	for col := range width {
		start := col * bucket
		if start >= len(samples) {
			break
		}

		end := min(start+bucket, len(samples))
		levels[col] = scale(int(uictl.Peak(samples[start:end])), top)
	}

	return levels
}

// scale uses a square-root curve so quiet speech stays visible.
func scale(amp, top int) int {
	if amp <= 0 {
		return 0
	}

	normalized := math.Min(float64(amp)/math.MaxInt16, 1)

	return min(int(math.Sqrt(normalized)*float64(top)), top)
}
