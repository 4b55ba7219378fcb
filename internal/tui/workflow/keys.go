package workflow

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/salcon83/lifebooks-ai/internal/tui/style"
)

type keyMap struct {
	ForceQuit key.Binding
	Quit      key.Binding

	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Mode   key.Binding

	Record  key.Binding
	Keep    key.Binding
	Enhance key.Binding
	Next    key.Binding
	Prev    key.Binding
	Finish  key.Binding

	Save   key.Binding
	Export key.Binding
	New    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),

		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Mode:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch interview style")),

		Record:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "record/stop")),
		Keep:    key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "keep transcription")),
		Enhance: key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "enhance")),
		Next:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next")),
		Prev:    key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "previous")),
		Finish:  key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "finish interview")),

		Save:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Export: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export .txt")),
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new story")),
	}
}

// renderKeyHelp renders bindings as "[key] desc" hints on one line.
func renderKeyHelp(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts,
			style.Help.Render("[")+style.Key.Render(h.Key)+style.Help.Render("] "+h.Desc))
	}

	return strings.Join(parts, "  ")
}
