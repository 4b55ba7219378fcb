package interview

import (
	"fmt"
	"strings"

	"github.com/salcon83/lifebooks-ai/internal/story"
)

// AssemblyPolicy controls how a conversational transcript becomes a draft.
type AssemblyPolicy struct {
	// IncludeInterviewerTurns keeps the interviewer's questions in the
	// transcript, labelled by speaker. By default only user turns are kept.
	IncludeInterviewerTurns bool
}

// Assemble builds a draft from the session. It is a pure function of its
// inputs: the same session always yields the same text.
func Assemble(s *Session, policy AssemblyPolicy) story.Draft {
	d := story.Draft{
		Title:     s.Title,
		StoryType: s.StoryType.ID,
	}

	switch m := s.Mode.(type) {
	case *Structured:
		d.Body = structuredBody(m)
	case *Conversational:
		if m.InferredStoryType != "" {
			d.StoryType = m.InferredStoryType
		}
		d.Body = conversationalBody(m, policy)
	}

	return d
}

func structuredBody(s *Structured) string {
	parts := make([]string, 0, len(s.Answers))
	for i := range s.Prompts {
		if a, ok := s.Answers[i]; ok {
			parts = append(parts, a)
		}
	}

	return strings.Join(parts, "\n\n")
}

func conversationalBody(c *Conversational, policy AssemblyPolicy) string {
	var sections []string

	if outline := outlineSection(c); outline != "" {
		sections = append(sections, outline)
	}

	var turns []string
	for _, m := range c.Messages {
		switch {
		case m.Role == RoleUser && policy.IncludeInterviewerTurns:
			turns = append(turns, "**You:** "+m.Content)
		case m.Role == RoleUser:
			turns = append(turns, m.Content)
		case policy.IncludeInterviewerTurns:
			turns = append(turns, "**Interviewer:** "+m.Content)
		}
	}

	if len(sections) == 0 {
		return strings.Join(turns, "\n\n")
	}

	transcript := "## Your Story"
	if len(turns) > 0 {
		transcript += "\n\n" + strings.Join(turns, "\n\n")
	}
	sections = append(sections, transcript)

	return strings.Join(sections, "\n\n")
}

func outlineSection(c *Conversational) string {
	o := c.Outline
	if o == nil && len(c.Themes) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Book Outline\n")

	storyType := c.InferredStoryType
	themes := c.Themes
	if o != nil {
		if o.BookType != "" {
			storyType = o.BookType
		}
		if len(o.Themes) > 0 {
			themes = o.Themes
		}
	}

	if storyType != "" {
		fmt.Fprintf(&b, "\n**Story Type:** %s", storyType)
	}
	if o != nil && o.EstimatedLength != "" {
		fmt.Fprintf(&b, "\n**Estimated Length:** %s", o.EstimatedLength)
	}
	if len(themes) > 0 {
		fmt.Fprintf(&b, "\n**Key Themes:** %s", strings.Join(themes, ", "))
	}

	if o != nil && len(o.Chapters) > 0 {
		b.WriteString("\n\n### Chapters")
		for i, ch := range o.Chapters {
			fmt.Fprintf(&b, "\n\n**Chapter %d: %s**", i+1, ch.Title)
			if ch.Theme != "" {
				b.WriteString("\n" + ch.Theme)
			}
		}
	}

	return b.String()
}
