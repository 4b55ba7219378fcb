// Package workflow implements the interactive story interview wizard.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/salcon83/lifebooks-ai/internal/gateway"
	"github.com/salcon83/lifebooks-ai/internal/interview"
	"github.com/salcon83/lifebooks-ai/internal/recording"
	"github.com/salcon83/lifebooks-ai/internal/story"
	"github.com/salcon83/lifebooks-ai/internal/tui/components/labeledspinner"
	"github.com/salcon83/lifebooks-ai/internal/tui/components/meter"
	"github.com/salcon83/lifebooks-ai/internal/tui/style"
	"github.com/salcon83/lifebooks-ai/pkg/uictl"
)

// Recorder captures one answer at a time. Transcriptions come back through
// TranscriptionMsg.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Discard() error
	State() recording.State
	Levels() uictl.Levels[int16]
	ElapsedDial() uictl.Dial[int]
}

// Saver persists finished stories.
type Saver interface {
	Save(ctx context.Context, in story.NewStory) (*story.Story, error)
}

// Attachment is a reference file named on the command line.
type Attachment struct {
	Name      string
	MediaType string
	Size      int64
	Preview   string
}

// Deps are the wizard's collaborators. Recorder and Store may be nil, which
// disables recording and saving respectively.
type Deps struct {
	Controller  *interview.Controller
	Gateway     gateway.Gateway
	Recorder    Recorder
	Store       Saver
	ExportDir   string
	Attachments []Attachment
	// Cancel is called when the user quits.
	Cancel func()
	Logger *slog.Logger
}

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeSuccess
	noticeWarning
	noticeError
)

// Model is the root wizard model. Each controller state has its own screen.
type Model struct {
	ctx    context.Context
	deps   Deps
	keys   keyMap
	logger *slog.Logger

	width, height int

	cursor   int
	choosing bool
	title    textinput.Model
	guided   bool

	editor  textarea.Model
	preview viewport.Model
	meter   meter.Model

	spinner labeledspinner.Model

	notice     string
	noticeKind noticeKind

	draft      *story.Draft
	saved      *story.Story
	exportPath string
}

// New creates the wizard.
func New(ctx context.Context, deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "My Life Story"
	ti.CharLimit = 120

	ta := textarea.New()
	ta.Placeholder = "Type your answer, or press ctrl+r to record it..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	m := &Model{
		ctx:     ctx,
		deps:    deps,
		keys:    defaultKeyMap(),
		logger:  logger,
		title:   ti,
		editor:  ta,
		preview: viewport.New(76, 16),
		spinner: labeledspinner.New(spinner.Dot),
	}

	var levels uictl.Levels[int16]
	var elapsed uictl.Dial[int]
	if deps.Recorder != nil {
		levels = deps.Recorder.Levels()
		elapsed = deps.Recorder.ElapsedDial()
	}
	m.meter = meter.New(levels, elapsed, recording.FormatElapsed, 60, 2)

	m.resize(80, 24)

	return m
}

// Controller exposes the wizard state, mainly for tests.
func (m *Model) Controller() *interview.Controller {
	return m.deps.Controller
}

// Init returns the initial command.
func (m *Model) Init() tea.Cmd {
	return tea.SetWindowTitle("Lifebooks")
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	inner := max(width-4, 20)
	m.title.Width = min(inner, 60)
	m.editor.SetWidth(inner)
	m.editor.SetHeight(max(min(height/4, 10), 3))
	m.preview.Width = inner
	m.preview.Height = max(height-12, 5)
	m.meter = m.meter.Resize(min(inner, 60))

	if m.draft != nil {
		m.preview.SetContent(wrap(m.draft.Text(), inner-2))
	}
}

// Update handles all messages.
func (m *Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, m.quit()
		}
		if m.spinner.Active() {
			return m, nil
		}
		m.clearNotice()

		return m, m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case meter.TickMsg:
		var cmd tea.Cmd
		m.meter, cmd = m.meter.Update(msg)

		return m, cmd

	case ElapsedMsg:
		return m, nil

	case TranscriptionMsg:
		m.onTranscription(msg.Result)
		return m, nil

	case conversationStartedMsg:
		return m, m.onConversationStarted(msg)

	case replyMsg:
		return m, m.onReply(msg)

	case enhancedMsg:
		m.onEnhanced(msg)
		return m, nil

	case outlineMsg:
		m.onOutline(msg)
		return m, nil

	case savedMsg:
		m.onSaved(msg)
		return m, nil
	}

	return m, m.updateInputs(teaMsg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	c := m.deps.Controller

	switch c.State() {
	case interview.StateSelectingType:
		return m.handleSelectKey(msg)
	case interview.StateSettingUp:
		if m.choosing {
			return m.handleSelectKey(msg)
		}
		return m.handleSetupKey(msg)
	case interview.StateInterviewing:
		return m.handleInterviewKey(msg)
	case interview.StateFinalized:
		return m.handleReviewKey(msg)
	}

	return nil
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	switch m.deps.Controller.State() {
	case interview.StateSettingUp:
		if !m.choosing {
			m.title, cmd = m.title.Update(msg)
		}
	case interview.StateInterviewing:
		m.editor, cmd = m.editor.Update(msg)
	case interview.StateFinalized:
		m.preview, cmd = m.preview.Update(msg)
	}

	return cmd
}

func (m *Model) quit() tea.Cmd {
	if r := m.deps.Recorder; r != nil && r.State() == recording.StateRecording {
		if err := r.Discard(); err != nil {
			m.logger.Error("failed to discard recording on quit", "error", err)
		}
	}

	if m.deps.Cancel != nil {
		m.deps.Cancel()
	}

	return tea.Quit
}

func (m *Model) startBusy(title, subtitle string) tea.Cmd {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Begin(title, subtitle)

	return cmd
}

func (m *Model) stopBusy() {
	m.spinner = m.spinner.End()
}

func (m *Model) setNotice(kind noticeKind, text string) {
	m.notice = text
	m.noticeKind = kind
}

func (m *Model) clearNotice() {
	m.notice = ""
}

// fail reports an unexpected error from the controller.
func (m *Model) fail(op string, err error) {
	m.logger.Error("wizard step failed", "op", op, "error", err)
	m.setNotice(noticeError, fmt.Sprintf("Could not %s: %v", op, err))
}

// View renders the current screen.
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Lifebooks"))
	if s := m.deps.Controller.Session(); s != nil {
		sb.WriteString(style.Subtitle.Render(" · " + s.StoryType.Name))
		if s.Title != "" && m.deps.Controller.State() != interview.StateSettingUp {
			sb.WriteString(style.Subtitle.Render(fmt.Sprintf(" · %q", s.Title)))
		}
	}
	sb.WriteString("\n\n")

	switch m.deps.Controller.State() {
	case interview.StateSelectingType:
		sb.WriteString(m.viewSelect())
	case interview.StateSettingUp:
		if m.choosing {
			sb.WriteString(m.viewSelect())
		} else {
			sb.WriteString(m.viewSetup())
		}
	case interview.StateInterviewing:
		sb.WriteString(m.viewInterview())
	case interview.StateAssembling:
		sb.WriteString(style.Subtitle.Render("Putting your story together..."))
	case interview.StateFinalized:
		sb.WriteString(m.viewReview())
	}

	sb.WriteString("\n\n")

	if m.notice != "" {
		sb.WriteString(m.renderNotice())
		sb.WriteString("\n\n")
	}

	if m.spinner.Active() {
		sb.WriteString(m.spinner.View(""))
	} else {
		sb.WriteString(m.help())
	}

	return sb.String()
}

func (m *Model) renderNotice() string {
	switch m.noticeKind {
	case noticeSuccess:
		return style.Success.Render(m.notice)
	case noticeWarning:
		return style.Warning.Render(m.notice)
	case noticeError:
		return style.Error.Render(m.notice)
	default:
		return style.Subtitle.Render(m.notice)
	}
}

func (m *Model) help() string {
	k := m.keys

	switch m.deps.Controller.State() {
	case interview.StateSelectingType:
		return renderKeyHelp(k.Up, k.Down, k.Select, k.ForceQuit)
	case interview.StateSettingUp:
		if m.choosing {
			return renderKeyHelp(k.Up, k.Down, k.Select, k.ForceQuit)
		}
		return renderKeyHelp(k.Mode, k.Select, k.Back, k.ForceQuit)
	case interview.StateInterviewing:
		return m.interviewHelp()
	case interview.StateFinalized:
		return renderKeyHelp(k.Save, k.Export, k.New, k.Quit)
	}

	return renderKeyHelp(k.ForceQuit)
}
