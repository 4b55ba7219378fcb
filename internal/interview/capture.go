package interview

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/salcon83/lifebooks-ai/internal/gateway"
)

func (c *Controller) capturing(op string) error {
	return c.require(op, StateInterviewing)
}

// SetDraftAnswer replaces the in-progress answer.
func (c *Controller) SetDraftAnswer(text string) error {
	if err := c.capturing("set draft answer"); err != nil {
		return err
	}

	c.session.DraftAnswer = text

	return nil
}

// AppendTranscription adds transcribed speech to the draft answer, separated
// by a space.
func (c *Controller) AppendTranscription(text string) error {
	if err := c.capturing("append transcription"); err != nil {
		return err
	}

	c.session.DraftAnswer = joinSpaced(c.session.DraftAnswer, text)

	return nil
}

// ReceiveTranscription records a transcription outcome. Recognized text is
// held until the user keeps or enhances it. It returns the message to show
// the user, which is empty on success.
func (c *Controller) ReceiveTranscription(t gateway.Transcription) (string, error) {
	if err := c.capturing("receive transcription"); err != nil {
		return "", err
	}

	if t.Status != gateway.StatusTranscribed {
		c.session.Transcription = ""
		return t.Message, nil
	}

	c.session.Transcription = strings.TrimSpace(t.Text)

	return "", nil
}

// KeepTranscription merges the pending transcription into the draft answer
// verbatim. It is skipped only when the draft already ends with the same
// words, as it does after the same text was kept once.
func (c *Controller) KeepTranscription() error {
	if err := c.capturing("keep transcription"); err != nil {
		return err
	}

	text := c.session.Transcription
	c.session.Transcription = ""

	if strings.TrimSpace(text) == "" || endsWithPhrase(c.session.DraftAnswer, text) {
		return nil
	}

	c.session.DraftAnswer = joinSpaced(c.session.DraftAnswer, text)

	return nil
}

// ApplyEnhancement replaces the draft answer with an enhanced rewrite and
// drops any pending transcription. Blank rewrites are ignored.
func (c *Controller) ApplyEnhancement(enhanced string) error {
	if err := c.capturing("apply enhancement"); err != nil {
		return err
	}

	if strings.TrimSpace(enhanced) == "" {
		return nil
	}

	c.session.DraftAnswer = enhanced
	c.session.Transcription = ""

	return nil
}

// EnhancementSource returns the text an enhancement request should rewrite:
// the pending transcription if there is one, otherwise the draft answer.
func (c *Controller) EnhancementSource() string {
	if c.session == nil {
		return ""
	}

	if c.session.Transcription != "" {
		return joinSpaced(c.session.DraftAnswer, c.session.Transcription)
	}

	return c.session.DraftAnswer
}

// commit stores the draft answer for the current question. Blank drafts are
// never stored.
func (c *Controller) commit(s *Structured) bool {
	text := strings.TrimSpace(c.session.DraftAnswer)
	if text == "" {
		return false
	}

	s.Answers[s.Index] = text

	return true
}

// endsWithPhrase reports whether text ends with phrase on a word boundary.
func endsWithPhrase(text, phrase string) bool {
	text = strings.TrimRight(text, " \t\n")
	phrase = strings.TrimSpace(phrase)

	if !strings.HasSuffix(text, phrase) {
		return false
	}

	rest := strings.TrimSuffix(text, phrase)
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(rest)

	return unicode.IsSpace(r) || unicode.IsPunct(r)
}

func joinSpaced(a, b string) string {
	a = strings.TrimRight(a, " \t")
	b = strings.TrimLeft(b, " \t")

	switch {
	case strings.TrimSpace(a) == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
