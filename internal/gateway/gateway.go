// Package gateway adapts the remote AI services used by the wizard: speech
// transcription, text enhancement and the conversational interviewer.
package gateway

import (
	"context"
	"strings"
	"time"
)

const (
	// MessageManualEntry tells the user to type the answer after a failed transcription.
	MessageManualEntry = "Voice recording completed. Please type your response below or try recording again."
	// MessageNoSpeech is shown when a recording transcribed to nothing.
	MessageNoSpeech = "Recording processed. No speech detected."
)

// Audio is a finalized recording handed to a Transcriber.
type Audio struct {
	Data      []byte
	Filename  string
	MediaType string
	Duration  time.Duration
}

// TranscriptionStatus describes how a transcription attempt ended.
type TranscriptionStatus int

const (
	// StatusTranscribed means Text holds recognized speech.
	StatusTranscribed TranscriptionStatus = iota
	// StatusNoSpeech means the service answered but recognized nothing.
	StatusNoSpeech
	// StatusManualEntry means transcription failed and the user should type instead.
	StatusManualEntry
)

func (s TranscriptionStatus) String() string {
	switch s {
	case StatusTranscribed:
		return "transcribed"
	case StatusNoSpeech:
		return "no_speech"
	case StatusManualEntry:
		return "manual_entry"
	default:
		return "unknown"
	}
}

// Transcription is the outcome of transcribing one recording. Transcription
// never fails outright: failures surface as StatusManualEntry with Message set.
type Transcription struct {
	Text    string
	Status  TranscriptionStatus
	Message string
}

// Transcribed builds a successful outcome, mapping blank text to StatusNoSpeech.
func Transcribed(text string) Transcription {
	if isBlank(text) {
		return NoSpeech()
	}

	return Transcription{Text: text, Status: StatusTranscribed}
}

// NoSpeech builds the outcome for a recording with no recognizable speech.
func NoSpeech() Transcription {
	return Transcription{Status: StatusNoSpeech, Message: MessageNoSpeech}
}

// ManualEntry builds the fallback outcome for a failed transcription.
func ManualEntry() Transcription {
	return Transcription{Status: StatusManualEntry, Message: MessageManualEntry}
}

// Style selects how Enhance rewrites text.
type Style string

const (
	StyleStorytelling Style = "storytelling"
	StylePolish       Style = "polish"
)

// Valid reports whether s is a known style.
func (s Style) Valid() bool {
	return s == StyleStorytelling || s == StylePolish
}

// ConversationStart is returned when a conversational interview begins.
type ConversationStart struct {
	SessionID   string
	FirstPrompt string
	// TerminalPhases lists phase labels that end the interview.
	TerminalPhases []string
}

// ConversationReply is the interviewer's answer to one user message.
type ConversationReply struct {
	Reply             string
	Phase             string
	StoryType         string
	Themes            []string
	InterviewComplete bool
}

// Chapter is one entry in a synthesized book outline.
type Chapter struct {
	Title string `json:"title"`
	Theme string `json:"theme"`
}

// Outline is the book outline synthesized from a conversational interview.
type Outline struct {
	Title           string    `json:"title"`
	BookType        string    `json:"book_type"`
	EstimatedLength string    `json:"estimated_length"`
	Themes          []string  `json:"themes"`
	Chapters        []Chapter `json:"chapters"`
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) Transcription
}

// Enhancer rewrites text in a given style. On failure it returns the
// original text together with an error wrapping apperr.ErrGatewayUnavailable.
type Enhancer interface {
	Enhance(ctx context.Context, text string, style Style) (string, error)
}

// Interviewer runs a conversational interview.
type Interviewer interface {
	StartConversation(ctx context.Context) (ConversationStart, error)
	ContinueConversation(ctx context.Context, sessionID, message string) (ConversationReply, error)
	GenerateOutline(ctx context.Context, sessionID string) (Outline, error)
}

// Gateway bundles every remote AI capability the wizard uses.
type Gateway interface {
	Transcriber
	Enhancer
	Interviewer
}

// Composite assembles a Gateway from separate capability implementations.
type Composite struct {
	Transcriber
	Enhancer
	Interviewer
}

var _ Gateway = Composite{}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
