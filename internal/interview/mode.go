package interview

import (
	"maps"
	"slices"

	"github.com/salcon83/lifebooks-ai/internal/gateway"
)

// Mode is the interview variant chosen when the interview begins. It is
// either *Structured or *Conversational.
type Mode interface {
	isMode()
}

// Structured walks a fixed prompt list.
type Structured struct {
	Prompts []string
	// Index is the current question, or len(Prompts) once every answer is in.
	Index int
	// Answers holds committed, non-blank answers keyed by question index.
	Answers map[int]string
}

func (*Structured) isMode() {}

// Answer returns the committed answer for question i.
func (s *Structured) Answer(i int) (string, bool) {
	a, ok := s.Answers[i]
	return a, ok
}

// Done reports whether every question has been passed.
func (s *Structured) Done() bool {
	return s.Index >= len(s.Prompts)
}

func (s *Structured) clone() *Structured {
	return &Structured{
		Prompts: slices.Clone(s.Prompts),
		Index:   s.Index,
		Answers: maps.Clone(s.Answers),
	}
}

// Role identifies who wrote a conversational message.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleUser        Role = "user"
)

// Message is one turn of a conversational interview.
type Message struct {
	Role     Role
	Content  string
	Enhanced bool
}

// Conversational is an open-ended exchange with the AI interviewer.
type Conversational struct {
	SessionID         string
	Messages          []Message
	Phase             string
	InferredStoryType string
	Themes            []string
	// TerminalPhases is the gateway-supplied set of phases that end the interview.
	TerminalPhases []string
	Complete       bool
	Outline        *gateway.Outline
}

func (*Conversational) isMode() {}

// UserMessages returns the content of every user turn in order.
func (c *Conversational) UserMessages() []string {
	var out []string
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			out = append(out, m.Content)
		}
	}

	return out
}

func (c *Conversational) terminal(phase string) bool {
	return phase != "" && slices.Contains(c.TerminalPhases, phase)
}

func (c *Conversational) clone() *Conversational {
	out := *c
	out.Messages = slices.Clone(c.Messages)
	out.Themes = slices.Clone(c.Themes)
	out.TerminalPhases = slices.Clone(c.TerminalPhases)
	if c.Outline != nil {
		o := *c.Outline
		o.Themes = slices.Clone(o.Themes)
		o.Chapters = slices.Clone(o.Chapters)
		out.Outline = &o
	}

	return &out
}
