// Package interview implements the story interview wizard: the story-type
// catalog, the wizard state machine, answer capture and draft assembly.
package interview

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
	"github.com/salcon83/lifebooks-ai/internal/gateway"
	"github.com/salcon83/lifebooks-ai/internal/story"
)

// Controller owns the single live interview session and drives it through
// SelectingType, SettingUp, Interviewing, Assembling and Finalized.
//
// Controller is not safe for concurrent use. Gateway results are applied
// from the caller's event loop.
type Controller struct {
	catalog *Catalog
	policy  AssemblyPolicy
	logger  *slog.Logger

	state   State
	session *Session
	draft   *story.Draft
}

// Option configures a Controller.
type Option func(*Controller)

// WithAssemblyPolicy sets how conversational transcripts are assembled.
func WithAssemblyPolicy(p AssemblyPolicy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a controller in StateSelectingType.
func NewController(catalog *Catalog, opts ...Option) *Controller {
	c := &Controller{
		catalog: catalog,
		logger:  slog.Default(),
		state:   StateSelectingType,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Catalog returns the story types the controller offers.
func (c *Controller) Catalog() *Catalog {
	return c.catalog
}

// State returns the current wizard step.
func (c *Controller) State() State {
	return c.state
}

// Session returns the live session, or nil before a story type is chosen.
func (c *Controller) Session() *Session {
	return c.session
}

// Draft returns the most recently assembled draft.
func (c *Controller) Draft() (story.Draft, bool) {
	if c.draft == nil {
		return story.Draft{}, false
	}

	return *c.draft, true
}

// invalid reports a caller-contract violation.
func (c *Controller) invalid(op string) error {
	err := fmt.Errorf("%w: %s in state %s", apperr.ErrInvalidState, op, c.state)
	c.logger.Error("wizard contract violation", "error", err)

	return err
}

func (c *Controller) require(op string, states ...State) error {
	if !slices.Contains(states, c.state) {
		return c.invalid(op)
	}

	return nil
}

// SelectStoryType starts a fresh session for the given story type. It may be
// called again while setting up to change the choice; the title and attached
// materials carry over.
func (c *Controller) SelectStoryType(id string) error {
	if err := c.require("select story type", StateSelectingType, StateSettingUp); err != nil {
		return err
	}

	st, err := c.catalog.Lookup(id)
	if err != nil {
		c.logger.Error("unknown story type selected", "id", id)
		return err
	}

	next := &Session{StoryType: st}
	if c.session != nil {
		next.Title = c.session.Title
		next.Materials = c.session.Materials
	}

	c.session = next
	c.draft = nil
	c.state = StateSettingUp

	c.logger.Debug("story type selected", "id", st.ID, "prompts", len(st.Prompts))

	return nil
}

// SetTitle stores the story title verbatim. Control characters are rejected.
func (c *Controller) SetTitle(text string) error {
	if err := c.require("set title", StateSettingUp, StateInterviewing, StateAssembling); err != nil {
		return err
	}

	if strings.ContainsFunc(text, unicode.IsControl) {
		return fmt.Errorf("%w: title contains control characters", apperr.ErrInvalidInput)
	}

	c.session.Title = text

	return nil
}

func (c *Controller) requireTitle() error {
	if strings.TrimSpace(c.session.Title) == "" {
		return fmt.Errorf("%w: story title is required", apperr.ErrInvalidInput)
	}

	return nil
}

// BeginStructured starts the fixed-prompt interview for the chosen story type.
func (c *Controller) BeginStructured() error {
	if err := c.require("begin structured interview", StateSettingUp); err != nil {
		return err
	}

	if err := c.requireTitle(); err != nil {
		return err
	}

	c.session.Mode = &Structured{
		Prompts: slices.Clone(c.session.StoryType.Prompts),
		Answers: make(map[int]string),
	}
	c.session.DraftAnswer = ""
	c.session.Transcription = ""
	c.state = StateInterviewing

	return nil
}

// BeginConversational starts an AI-led interview using a conversation the
// gateway has already opened.
func (c *Controller) BeginConversational(start gateway.ConversationStart) error {
	if err := c.require("begin conversational interview", StateSettingUp); err != nil {
		return err
	}

	if err := c.requireTitle(); err != nil {
		return err
	}

	if start.SessionID == "" {
		return fmt.Errorf("%w: conversation has no session id", apperr.ErrInvalidInput)
	}

	conv := &Conversational{
		SessionID:      start.SessionID,
		TerminalPhases: slices.Clone(start.TerminalPhases),
	}
	if start.FirstPrompt != "" {
		conv.Messages = append(conv.Messages, Message{Role: RoleInterviewer, Content: start.FirstPrompt})
	}

	c.session.Mode = conv
	c.session.DraftAnswer = ""
	c.session.Transcription = ""
	c.state = StateInterviewing

	return nil
}

func (c *Controller) structured(op string) (*Structured, error) {
	if err := c.require(op, StateInterviewing); err != nil {
		return nil, err
	}

	s, ok := c.session.Structured()
	if !ok {
		return nil, c.invalid(op + " outside structured mode")
	}

	return s, nil
}

func (c *Controller) conversational(op string) (*Conversational, error) {
	if err := c.require(op, StateInterviewing); err != nil {
		return nil, err
	}

	conv, ok := c.session.Conversational()
	if !ok {
		return nil, c.invalid(op + " outside conversational mode")
	}

	return conv, nil
}

// CurrentPrompt returns the question being answered in structured mode.
func (c *Controller) CurrentPrompt() (string, bool) {
	if c.session == nil {
		return "", false
	}

	s, ok := c.session.Structured()
	if !ok || s.Done() {
		return "", false
	}

	return s.Prompts[s.Index], true
}

// Progress returns the 1-based question number and the question count in
// structured mode, or the number of user messages and zero in conversational mode.
func (c *Controller) Progress() (current, total int) {
	if c.session == nil {
		return 0, 0
	}

	switch m := c.session.Mode.(type) {
	case *Structured:
		return min(m.Index+1, len(m.Prompts)), len(m.Prompts)
	case *Conversational:
		return len(m.UserMessages()), 0
	}

	return 0, 0
}

// Advance commits the draft answer and moves to the next question. A blank
// draft is not committed and the index stays put; Advance then reports false.
// Advancing past the last question moves the wizard to StateAssembling.
func (c *Controller) Advance() (bool, error) {
	s, err := c.structured("advance")
	if err != nil {
		return false, err
	}

	if !c.commit(s) {
		return false, nil
	}

	s.Index++
	c.session.Transcription = ""

	if s.Done() {
		c.session.DraftAnswer = ""
		c.state = StateAssembling
		c.logger.Info("interview complete", "story_type", c.session.StoryType.ID, "answers", len(s.Answers))

		return true, nil
	}

	c.session.DraftAnswer = s.Answers[s.Index]

	return true, nil
}

// Retreat moves back one question, loading its committed answer for editing.
// Answers beyond the current question are kept. Retreat at the first
// question does nothing.
func (c *Controller) Retreat() error {
	s, err := c.structured("retreat")
	if err != nil {
		return err
	}

	if s.Index == 0 {
		return nil
	}

	s.Index--
	c.session.DraftAnswer = s.Answers[s.Index]
	c.session.Transcription = ""

	return nil
}

// SubmitMessage moves the draft into the conversation log as a user turn and
// returns the text to send to the interviewer. A blank draft is not sent.
func (c *Controller) SubmitMessage() (string, bool, error) {
	conv, err := c.conversational("submit message")
	if err != nil {
		return "", false, err
	}

	text := strings.TrimSpace(c.session.DraftAnswer)
	if text == "" {
		return "", false, nil
	}

	conv.Messages = append(conv.Messages, Message{Role: RoleUser, Content: text})
	c.session.DraftAnswer = ""
	c.session.Transcription = ""

	return text, true, nil
}

// ApplyReply records the interviewer's reply. The interview ends when the
// gateway flags it complete or reports one of its terminal phases.
func (c *Controller) ApplyReply(reply gateway.ConversationReply) error {
	conv, err := c.conversational("apply reply")
	if err != nil {
		return err
	}

	if reply.Reply != "" {
		conv.Messages = append(conv.Messages, Message{Role: RoleInterviewer, Content: reply.Reply})
	}

	if reply.Phase != "" {
		conv.Phase = reply.Phase
	}
	if reply.StoryType != "" {
		conv.InferredStoryType = reply.StoryType
	}
	if reply.Themes != nil {
		conv.Themes = slices.Clone(reply.Themes)
	}

	if reply.InterviewComplete || conv.terminal(reply.Phase) {
		conv.Complete = true
		c.state = StateAssembling
		c.logger.Info("conversation complete", "session_id", conv.SessionID, "phase", conv.Phase)
	}

	return nil
}

// FinishConversation ends a conversational interview at the user's request.
func (c *Controller) FinishConversation() error {
	conv, err := c.conversational("finish conversation")
	if err != nil {
		return err
	}

	if len(conv.UserMessages()) == 0 {
		return fmt.Errorf("%w: nothing to assemble yet", apperr.ErrEmptyAnswer)
	}

	conv.Complete = true
	c.state = StateAssembling

	return nil
}

// SetOutline attaches the gateway's book outline to a finished conversation.
func (c *Controller) SetOutline(outline gateway.Outline) error {
	if err := c.require("set outline", StateAssembling); err != nil {
		return err
	}

	conv, ok := c.session.Conversational()
	if !ok {
		return c.invalid("set outline outside conversational mode")
	}

	conv.Outline = &outline

	return nil
}

// EditMessage replaces the text of a user turn.
func (c *Controller) EditMessage(i int, text string) error {
	return c.replaceMessage("edit message", i, text, false)
}

// EnhanceMessage replaces a user turn with its enhanced rewrite.
func (c *Controller) EnhanceMessage(i int, enhanced string) error {
	return c.replaceMessage("enhance message", i, enhanced, true)
}

func (c *Controller) replaceMessage(op string, i int, text string, enhanced bool) error {
	conv, err := c.conversational(op)
	if err != nil {
		return err
	}

	if i < 0 || i >= len(conv.Messages) || conv.Messages[i].Role != RoleUser {
		return fmt.Errorf("%w: message %d is not a user message", apperr.ErrInvalidInput, i)
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}

	conv.Messages[i].Content = text
	conv.Messages[i].Enhanced = enhanced

	return nil
}

// Assemble builds the draft from the finished session and moves the wizard to
// StateFinalized. Calling it again from StateFinalized regenerates the draft.
func (c *Controller) Assemble() (story.Draft, error) {
	if err := c.require("assemble", StateAssembling, StateFinalized); err != nil {
		return story.Draft{}, err
	}

	d := Assemble(c.session, c.policy)
	c.draft = &d
	c.state = StateFinalized

	return d, nil
}

// Reset discards the finished session and returns to story type selection.
func (c *Controller) Reset() error {
	if err := c.require("reset", StateFinalized); err != nil {
		return err
	}

	c.Abandon()

	return nil
}

// Abandon discards any session state, whatever the current step.
func (c *Controller) Abandon() {
	c.session = nil
	c.draft = nil
	c.state = StateSelectingType
}

// AddMaterial attaches a reference file to the session.
func (c *Controller) AddMaterial(name, mediaType string, size int64, preview string) (Material, error) {
	if c.session == nil {
		return Material{}, c.invalid("add material")
	}

	m := newMaterial(name, mediaType, size, preview)
	c.session.Materials = append(c.session.Materials, m)

	return m, nil
}

// RemoveMaterial detaches a reference file by id.
func (c *Controller) RemoveMaterial(id string) error {
	if c.session == nil {
		return c.invalid("remove material")
	}

	i := slices.IndexFunc(c.session.Materials, func(m Material) bool { return m.ID == id })
	if i < 0 {
		return fmt.Errorf("material %q: %w", id, apperr.ErrNotFound)
	}

	c.session.Materials = slices.Delete(c.session.Materials, i, i+1)

	return nil
}
