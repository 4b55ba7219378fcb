package workflow

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/salcon83/lifebooks-ai/internal/interview"
	"github.com/salcon83/lifebooks-ai/internal/story"
	"github.com/salcon83/lifebooks-ai/internal/tui/style"
)

func (m *Model) assemble() {
	d, err := m.deps.Controller.Assemble()
	if err != nil {
		m.fail("assemble story", err)
		return
	}

	m.draft = &d
	m.saved = nil
	m.exportPath = ""
	m.editor.Blur()
	m.preview.SetContent(wrap(d.Text(), m.preview.Width-2))
	m.preview.GotoTop()
}

func (m *Model) handleReviewKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Save):
		return m.save()
	case key.Matches(msg, m.keys.Export):
		m.export()
		return nil
	case key.Matches(msg, m.keys.New):
		return m.startOver()
	}

	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)

	return cmd
}

func (m *Model) save() tea.Cmd {
	if m.deps.Store == nil {
		m.setNotice(noticeWarning, "Saving isn't available. Press x to export a text file instead.")
		return nil
	}
	if m.saved != nil {
		m.setNotice(noticeInfo, fmt.Sprintf("Already saved as story #%d.", m.saved.ID))
		return nil
	}

	return tea.Batch(
		m.startBusy("Saving your story", ""),
		saveCmd(m.ctx, m.deps.Store, story.FromDraft(*m.draft)),
	)
}

func (m *Model) onSaved(msg savedMsg) {
	m.stopBusy()

	if msg.err != nil {
		m.logger.Error("failed to save story", "error", msg.err)
		m.setNotice(noticeError, "Your story couldn't be saved: "+msg.err.Error())
		return
	}

	m.saved = msg.story
	m.logger.Info("story saved", "id", msg.story.ID, "words", msg.story.WordCount)
	m.setNotice(noticeSuccess, fmt.Sprintf("Saved as story #%d.", msg.story.ID))
}

func (m *Model) export() {
	dir := m.deps.ExportDir
	if dir == "" {
		dir = "."
	}

	path, err := story.Export(*m.draft, dir)
	if err != nil {
		m.logger.Error("failed to export story", "error", err)
		m.setNotice(noticeError, "Export failed: "+err.Error())
		return
	}

	m.exportPath = path
	m.setNotice(noticeSuccess, "Exported to "+path)
}

func (m *Model) startOver() tea.Cmd {
	if err := m.deps.Controller.Reset(); err != nil {
		m.fail("start a new story", err)
		return nil
	}

	m.draft = nil
	m.saved = nil
	m.exportPath = ""
	m.cursor = 0
	m.choosing = false
	m.guided = false
	m.title.SetValue("")
	m.editor.SetValue("")

	return nil
}

func (m *Model) viewReview() string {
	if m.draft == nil || m.deps.Controller.State() != interview.StateFinalized {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(style.Success.Render("Your story is ready"))
	sb.WriteString(style.Muted.Render(fmt.Sprintf("  %d words", m.draft.WordCount())))
	sb.WriteString("\n\n")
	sb.WriteString(style.Viewport.Render(m.preview.View()))

	return sb.String()
}

// wrap word-wraps text to width.
func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	return lipgloss.NewStyle().Width(width).Render(text)
}
