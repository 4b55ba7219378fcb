package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
	"github.com/salcon83/lifebooks-ai/internal/gateway"
	"github.com/salcon83/lifebooks-ai/internal/interview"
	"github.com/salcon83/lifebooks-ai/internal/recording"
	"github.com/salcon83/lifebooks-ai/internal/tui/style"
)

// visibleTurns is how many conversation turns are shown above the editor.
const visibleTurns = 4

func (m *Model) enterInterview() tea.Cmd {
	m.loadDraft()
	return m.editor.Focus()
}

// syncDraft pushes the editor text into the controller.
func (m *Model) syncDraft() {
	if err := m.deps.Controller.SetDraftAnswer(m.editor.Value()); err != nil {
		m.fail("update answer", err)
	}
}

// loadDraft pulls the controller's draft into the editor.
func (m *Model) loadDraft() {
	if s := m.deps.Controller.Session(); s != nil {
		m.editor.SetValue(s.DraftAnswer)
	}
}

func (m *Model) conversational() (*interview.Conversational, bool) {
	s := m.deps.Controller.Session()
	if s == nil {
		return nil, false
	}

	return s.Conversational()
}

func (m *Model) isRecording() bool {
	return m.deps.Recorder != nil && m.deps.Recorder.State() == recording.StateRecording
}

func (m *Model) handleInterviewKey(msg tea.KeyMsg) tea.Cmd {
	_, conversational := m.conversational()

	switch {
	case key.Matches(msg, m.keys.Record):
		return m.toggleRecording()
	case m.isRecording():
		// Typing is paused while the microphone is live.
		return nil
	case key.Matches(msg, m.keys.Keep):
		m.keep()
		return nil
	case key.Matches(msg, m.keys.Enhance):
		return m.enhance()
	case key.Matches(msg, m.keys.Next) && conversational:
		return m.send()
	case key.Matches(msg, m.keys.Next):
		return m.next()
	case key.Matches(msg, m.keys.Prev) && !conversational:
		m.prev()
		return nil
	case key.Matches(msg, m.keys.Finish) && conversational:
		return m.finish()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)

	return cmd
}

func (m *Model) toggleRecording() tea.Cmd {
	r := m.deps.Recorder
	if r == nil {
		m.setNotice(noticeWarning, "Voice recording isn't available here. Please type your answer instead.")
		return nil
	}

	if m.isRecording() {
		m.meter = m.meter.Stop()
		if err := r.Stop(m.ctx); err != nil {
			m.logger.Error("failed to stop recording", "error", err)
		}

		return m.startBusy("Transcribing", "Turning your recording into text.")
	}

	if err := r.Start(m.ctx); err != nil {
		if errors.Is(err, apperr.ErrDeviceUnavailable) {
			m.setNotice(noticeError, "Microphone unavailable. Check that a microphone is connected and permitted, or type your answer.")
		} else {
			m.fail("start recording", err)
		}

		return nil
	}

	m.syncDraft()
	m.editor.Blur()

	var cmd tea.Cmd
	m.meter, cmd = m.meter.Start()

	return cmd
}

func (m *Model) onTranscription(t gateway.Transcription) {
	m.stopBusy()
	m.editor.Focus()

	if m.deps.Controller.State() != interview.StateInterviewing {
		return
	}

	message, err := m.deps.Controller.ReceiveTranscription(t)
	if err != nil {
		m.fail("receive transcription", err)
		return
	}

	if message != "" {
		m.setNotice(noticeWarning, message)
	}
}

func (m *Model) keep() {
	m.syncDraft()
	if err := m.deps.Controller.KeepTranscription(); err != nil {
		m.fail("keep transcription", err)
		return
	}
	m.loadDraft()
}

func (m *Model) enhance() tea.Cmd {
	m.syncDraft()

	text := m.deps.Controller.EnhancementSource()
	if strings.TrimSpace(text) == "" {
		m.setNotice(noticeWarning, "There's nothing to enhance yet.")
		return nil
	}

	return tea.Batch(
		m.startBusy("Enhancing", "Polishing your words into storytelling prose."),
		enhanceCmd(m.ctx, m.deps.Gateway, text),
	)
}

func (m *Model) onEnhanced(msg enhancedMsg) {
	m.stopBusy()

	if m.deps.Controller.State() != interview.StateInterviewing {
		return
	}

	if msg.err != nil {
		m.logger.Warn("enhancement failed", "error", msg.err)
		m.setNotice(noticeWarning, "Enhancement is unavailable right now. Your text was kept as it is.")
		return
	}

	if err := m.deps.Controller.ApplyEnhancement(msg.text); err != nil {
		m.fail("apply enhancement", err)
		return
	}

	m.loadDraft()
	m.setNotice(noticeSuccess, "Answer enhanced.")
}

func (m *Model) next() tea.Cmd {
	c := m.deps.Controller
	m.syncDraft()

	advanced, err := c.Advance()
	if err != nil {
		m.fail("continue", err)
		return nil
	}
	if !advanced {
		m.setNotice(noticeWarning, "Please provide an answer before continuing.")
		return nil
	}

	if c.State() == interview.StateAssembling {
		m.assemble()
		return nil
	}

	m.loadDraft()

	return nil
}

func (m *Model) prev() {
	m.syncDraft()
	if err := m.deps.Controller.Retreat(); err != nil {
		m.fail("go back", err)
		return
	}
	m.loadDraft()
}

func (m *Model) send() tea.Cmd {
	m.syncDraft()

	conv, ok := m.conversational()
	if !ok {
		return nil
	}

	text, sent, err := m.deps.Controller.SubmitMessage()
	if err != nil {
		m.fail("send message", err)
		return nil
	}
	if !sent {
		m.setNotice(noticeWarning, "Please type or record a response first.")
		return nil
	}

	m.loadDraft()

	return tea.Batch(
		m.startBusy("Your interviewer is thinking", ""),
		continueConversationCmd(m.ctx, m.deps.Gateway, conv.SessionID, text),
	)
}

func (m *Model) onReply(msg replyMsg) tea.Cmd {
	m.stopBusy()
	c := m.deps.Controller

	if c.State() != interview.StateInterviewing {
		return nil
	}

	if msg.err != nil {
		m.logger.Warn("interviewer reply failed", "error", msg.err)
		m.setNotice(noticeError, "The interviewer couldn't respond. Send another message, or press ctrl+f to finish.")
		return nil
	}

	if err := c.ApplyReply(msg.reply); err != nil {
		m.fail("record reply", err)
		return nil
	}

	if c.State() == interview.StateAssembling {
		return m.requestOutline()
	}

	return nil
}

func (m *Model) finish() tea.Cmd {
	m.syncDraft()

	if err := m.deps.Controller.FinishConversation(); err != nil {
		if errors.Is(err, apperr.ErrEmptyAnswer) {
			m.setNotice(noticeWarning, "Share at least one response before finishing.")
			return nil
		}
		m.fail("finish interview", err)

		return nil
	}

	return m.requestOutline()
}

func (m *Model) requestOutline() tea.Cmd {
	conv, ok := m.conversational()
	if !ok {
		m.assemble()
		return nil
	}

	return tea.Batch(
		m.startBusy("Drafting your book outline", "Gathering the themes from your conversation."),
		outlineCmd(m.ctx, m.deps.Gateway, conv.SessionID),
	)
}

func (m *Model) onOutline(msg outlineMsg) {
	m.stopBusy()

	if msg.err != nil {
		m.logger.Warn("outline generation failed", "error", msg.err)
		m.setNotice(noticeWarning, "The outline couldn't be generated, so your story was assembled without it.")
	} else if err := m.deps.Controller.SetOutline(msg.outline); err != nil {
		m.fail("attach outline", err)
	}

	m.assemble()
}

func (m *Model) interviewHelp() string {
	k := m.keys

	if m.isRecording() {
		return renderKeyHelp(k.Record, k.ForceQuit)
	}

	if _, ok := m.conversational(); ok {
		k.Next.SetHelp("ctrl+n", "send")
		return renderKeyHelp(k.Record, k.Keep, k.Enhance, k.Next, k.Finish, k.ForceQuit)
	}

	return renderKeyHelp(k.Record, k.Keep, k.Enhance, k.Prev, k.Next, k.ForceQuit)
}

func (m *Model) viewInterview() string {
	var sb strings.Builder

	if conv, ok := m.conversational(); ok {
		sb.WriteString(m.viewConversation(conv))
	} else {
		current, total := m.deps.Controller.Progress()
		prompt, _ := m.deps.Controller.CurrentPrompt()

		sb.WriteString(style.Subtitle.Render(fmt.Sprintf("Question %d of %d", current, total)))
		sb.WriteString("\n\n")
		sb.WriteString(style.Question.Render(wrap(prompt, m.editor.Width())))
	}
	sb.WriteString("\n\n")

	if m.isRecording() {
		sb.WriteString(m.meter.View())
		return sb.String()
	}

	if s := m.deps.Controller.Session(); s != nil && s.Transcription != "" {
		sb.WriteString(style.Pending.Render(
			style.Label.Render("Transcription") + "\n" + wrap(s.Transcription, m.editor.Width()-2)))
		sb.WriteString("\n\n")
	}

	sb.WriteString(m.editor.View())

	return sb.String()
}

func (m *Model) viewConversation(conv *interview.Conversational) string {
	var sb strings.Builder

	if conv.Phase != "" {
		sb.WriteString(style.Subtitle.Render("Stage: " + strings.ReplaceAll(conv.Phase, "_", " ")))
		sb.WriteString("\n\n")
	}

	turns := conv.Messages[max(0, len(conv.Messages)-visibleTurns):]
	for i, msg := range turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}

		label := style.Interviewer.Render("Interviewer:")
		if msg.Role == interview.RoleUser {
			label = style.Speaker.Render("You:")
		}
		sb.WriteString(label + " " + wrap(msg.Content, m.editor.Width()-lipgloss.Width("Interviewer: ")))
	}

	return sb.String()
}
