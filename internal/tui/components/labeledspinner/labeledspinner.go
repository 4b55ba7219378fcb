// Package labeledspinner shows a spinner next to a label while a gateway
// call is in flight.
package labeledspinner

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/salcon83/lifebooks-ai/internal/tui/style"
)

// Model is an indicator that is either idle or busy with a labelled task.
// Ticks that arrive while idle are dropped, which ends the animation loop.
type Model struct {
	spinner  spinner.Model
	title    string
	subtitle string
	active   bool
}

// New creates an idle indicator that animates with s.
func New(s spinner.Spinner) Model {
	sp := spinner.New()
	sp.Spinner = s

	return Model{spinner: sp}
}

// Begin marks the indicator busy with a new label and starts the animation.
func (ls Model) Begin(title, subtitle string) (Model, tea.Cmd) {
	wasActive := ls.active
	ls.title = title
	ls.subtitle = subtitle
	ls.active = true

	if wasActive {
		// already ticking
		return ls, nil
	}

	return ls, ls.spinner.Tick
}

// End returns the indicator to idle.
func (ls Model) End() Model {
	ls.active = false
	return ls
}

// Active reports whether a task is in flight.
func (ls Model) Active() bool {
	return ls.active
}

// Title is the label of the current task.
func (ls Model) Title() string {
	return ls.title
}

// Update advances the animation while busy.
func (ls Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	tickMsg, ok := teaMsg.(spinner.TickMsg)
	if !ok || !ls.active {
		return ls, nil
	}

	var cmd tea.Cmd
	ls.spinner, cmd = ls.spinner.Update(tickMsg)

	return ls, cmd
}

// View renders the spinner, the label and help. It is empty while idle.
func (ls Model) View(help string) string {
	if !ls.active {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(ls.spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render(ls.title))

	if ls.subtitle != "" {
		sb.WriteString("\n\n")
		sb.WriteString(style.Subtitle.Render(ls.subtitle))
	}

	if help != "" {
		sb.WriteString("\n\n")
		sb.WriteString(style.Help.Render(help))
	}

	return sb.String()
}
