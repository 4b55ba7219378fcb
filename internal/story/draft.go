// Package story holds the assembled story draft and its persistence.
package story

import (
	"strings"
	"unicode"
)

// Draft is an assembled story ready for review, export or saving.
type Draft struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	StoryType string `json:"story_type"`
}

// Heading returns the title line that opens every draft.
func (d Draft) Heading() string {
	return "# " + d.Title
}

// Text renders the draft as plain text: the title line, a blank line, then the body.
func (d Draft) Text() string {
	return d.Heading() + "\n\n" + d.Body
}

// WordCount counts whitespace-separated words in the rendered draft body.
func (d Draft) WordCount() int {
	return WordCount(d.Body)
}

// WordCount counts whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.FieldsFunc(text, unicode.IsSpace))
}
