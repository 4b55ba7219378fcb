package workflow

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/salcon83/lifebooks-ai/internal/gateway"
	"github.com/salcon83/lifebooks-ai/internal/story"
)

// TranscriptionMsg delivers the outcome of a finished recording. Send it
// from the recorder's transcription callback.
type TranscriptionMsg struct {
	Result gateway.Transcription
}

// ElapsedMsg is sent on each recording tick so the elapsed time redraws.
type ElapsedMsg struct {
	Seconds int
}

type conversationStartedMsg struct {
	start gateway.ConversationStart
	err   error
}

type replyMsg struct {
	reply gateway.ConversationReply
	err   error
}

type enhancedMsg struct {
	text string
	err  error
}

type outlineMsg struct {
	outline gateway.Outline
	err     error
}

type savedMsg struct {
	story *story.Story
	err   error
}

func startConversationCmd(ctx context.Context, gw gateway.Interviewer) tea.Cmd {
	return func() tea.Msg {
		start, err := gw.StartConversation(ctx)
		return conversationStartedMsg{start: start, err: err}
	}
}

func continueConversationCmd(ctx context.Context, gw gateway.Interviewer, sessionID, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := gw.ContinueConversation(ctx, sessionID, text)
		return replyMsg{reply: reply, err: err}
	}
}

func outlineCmd(ctx context.Context, gw gateway.Interviewer, sessionID string) tea.Cmd {
	return func() tea.Msg {
		outline, err := gw.GenerateOutline(ctx, sessionID)
		return outlineMsg{outline: outline, err: err}
	}
}

func enhanceCmd(ctx context.Context, gw gateway.Enhancer, text string) tea.Cmd {
	return func() tea.Msg {
		enhanced, err := gw.Enhance(ctx, text, gateway.StyleStorytelling)
		return enhancedMsg{text: enhanced, err: err}
	}
}

func saveCmd(ctx context.Context, store Saver, in story.NewStory) tea.Cmd {
	return func() tea.Msg {
		saved, err := store.Save(ctx, in)
		return savedMsg{story: saved, err: err}
	}
}
