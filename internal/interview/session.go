package interview

import (
	"slices"

	"github.com/google/uuid"
)

// Material is a file the user attached to the session for reference.
type Material struct {
	ID        string
	Name      string
	MediaType string
	Size      int64
	Preview   string
}

func newMaterial(name, mediaType string, size int64, preview string) Material {
	return Material{
		ID:        uuid.NewString(),
		Name:      name,
		MediaType: mediaType,
		Size:      size,
		Preview:   preview,
	}
}

// Session is the live interview state owned by a Controller.
type Session struct {
	StoryType StoryType
	Title     string
	// Mode is nil until the interview begins.
	Mode Mode
	// DraftAnswer is the uncommitted text for the current question or message.
	DraftAnswer string
	// Transcription is the latest transcribed recording awaiting keep or enhance.
	Transcription string
	Materials     []Material
}

// Structured returns the structured mode state, if that is the active mode.
func (s *Session) Structured() (*Structured, bool) {
	m, ok := s.Mode.(*Structured)
	return m, ok
}

// Conversational returns the conversational mode state, if that is the active mode.
func (s *Session) Conversational() (*Conversational, bool) {
	m, ok := s.Mode.(*Conversational)
	return m, ok
}

// Snapshot returns a deep copy safe to hand to other goroutines.
func (s *Session) Snapshot() Session {
	out := *s
	out.StoryType = s.StoryType.clone()
	out.Materials = slices.Clone(s.Materials)

	switch m := s.Mode.(type) {
	case *Structured:
		out.Mode = m.clone()
	case *Conversational:
		out.Mode = m.clone()
	}

	return out
}
