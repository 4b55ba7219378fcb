package workflow

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/salcon83/lifebooks-ai/internal/interview"
	"github.com/salcon83/lifebooks-ai/internal/tui/style"
)

func (m *Model) handleSelectKey(msg tea.KeyMsg) tea.Cmd {
	types := m.deps.Controller.Catalog().Types()

	switch {
	case key.Matches(msg, m.keys.Quit) && m.deps.Controller.State() == interview.StateSelectingType:
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		m.cursor = (m.cursor - 1 + len(types)) % len(types)
	case key.Matches(msg, m.keys.Down):
		m.cursor = (m.cursor + 1) % len(types)
	case key.Matches(msg, m.keys.Back) && m.choosing:
		m.choosing = false
		return m.title.Focus()
	case key.Matches(msg, m.keys.Select):
		return m.selectType(types[m.cursor])
	}

	return nil
}

func (m *Model) selectType(st interview.StoryType) tea.Cmd {
	c := m.deps.Controller
	fresh := c.State() == interview.StateSelectingType

	if err := c.SelectStoryType(st.ID); err != nil {
		m.fail("select story type", err)
		return nil
	}

	if fresh {
		for _, a := range m.deps.Attachments {
			if _, err := c.AddMaterial(a.Name, a.MediaType, a.Size, a.Preview); err != nil {
				m.fail("attach "+a.Name, err)
			}
		}
	}

	m.choosing = false

	return m.title.Focus()
}

func (m *Model) viewSelect() string {
	var sb strings.Builder

	sb.WriteString(style.Question.Render("What kind of story would you like to tell?"))
	sb.WriteString("\n")

	for i, st := range m.deps.Controller.Catalog().Types() {
		sb.WriteString("\n")
		if i == m.cursor {
			sb.WriteString(style.Selected.Render("> " + st.Name))
		} else {
			sb.WriteString("  " + st.Name)
		}
		sb.WriteString("  " + style.Muted.Render(fmt.Sprintf("(%d questions)", len(st.Prompts))))
	}

	return sb.String()
}
