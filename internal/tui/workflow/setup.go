package workflow

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/salcon83/lifebooks-ai/internal/tui/style"
)

func (m *Model) handleSetupKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.choosing = true
		m.title.Blur()
		return nil
	case key.Matches(msg, m.keys.Mode):
		m.guided = !m.guided
		return nil
	case key.Matches(msg, m.keys.Select):
		return m.beginInterview()
	}

	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)

	return cmd
}

func (m *Model) beginInterview() tea.Cmd {
	c := m.deps.Controller

	title := strings.TrimSpace(m.title.Value())
	if title == "" {
		m.setNotice(noticeWarning, "Please give your story a title.")
		return nil
	}

	if err := c.SetTitle(title); err != nil {
		m.setNotice(noticeWarning, "That title can't be used: "+err.Error())
		return nil
	}

	m.title.Blur()

	if m.guided {
		return tea.Batch(
			m.startBusy("Starting your interview", "Your interviewer is getting ready."),
			startConversationCmd(m.ctx, m.deps.Gateway),
		)
	}

	if err := c.BeginStructured(); err != nil {
		m.fail("begin interview", err)
		return nil
	}

	return m.enterInterview()
}

func (m *Model) onConversationStarted(msg conversationStartedMsg) tea.Cmd {
	m.stopBusy()
	c := m.deps.Controller

	err := msg.err
	if err == nil {
		err = c.BeginConversational(msg.start)
	}

	if err != nil {
		m.logger.Warn("conversational interview unavailable, falling back to guided questions", "error", err)
		if err := c.BeginStructured(); err != nil {
			m.fail("begin interview", err)
			return nil
		}
		m.setNotice(noticeWarning, "The AI interviewer is unavailable, so we'll continue with guided questions.")
	}

	return m.enterInterview()
}

func (m *Model) viewSetup() string {
	var sb strings.Builder

	sb.WriteString(style.Label.Render("Title: "))
	sb.WriteString(m.title.View())
	sb.WriteString("\n\n")

	sb.WriteString(style.Label.Render("Interview style: "))
	structured, conversational := "( )", "( )"
	if m.guided {
		conversational = "(•)"
	} else {
		structured = "(•)"
	}
	sb.WriteString(fmt.Sprintf("%s Guided questions   %s AI conversation", structured, conversational))

	if s := m.deps.Controller.Session(); s != nil && len(s.Materials) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(style.Muted.Render(fmt.Sprintf("%d reference file(s) attached", len(s.Materials))))
	}

	return sb.String()
}
