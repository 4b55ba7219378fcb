package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
)

// messagesServer fakes the Anthropic Messages endpoint, replying with the
// queued content blocks in order and recording each request body.
type messagesServer struct {
	mu       sync.Mutex
	replies  [][]map[string]any
	requests []map[string]any
}

func (m *messagesServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	var req map[string]any
	_ = json.Unmarshal(body, &req)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var content []map[string]any
	if len(m.replies) > 0 {
		content = m.replies[0]
		m.replies = m.replies[1:]
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":            "msg_test",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-sonnet-4-5-20250929",
		"content":       content,
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage":         map[string]any{"input_tokens": 1, "output_tokens": 1},
	})
}

func toolBlock(name string, input map[string]any) []map[string]any {
	return []map[string]any{{"type": "tool_use", "id": "toolu_1", "name": name, "input": input}}
}

func textBlock(text string) []map[string]any {
	return []map[string]any{{"type": "text", "text": text}}
}

func newTestClaude(t *testing.T, replies ...[]map[string]any) (*Claude, *messagesServer) {
	t.Helper()

	fake := &messagesServer{replies: replies}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c := NewClaude("test-key", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	c.newID = func() string { return "session-1" }

	return c, fake
}

func TestClaude_MissingAPIKey(t *testing.T) {
	t.Parallel()

	c := NewClaude("")

	got, err := c.Enhance(context.Background(), "raw words", StyleStorytelling)
	require.ErrorIs(t, err, apperr.ErrGatewayUnavailable)
	assert.Contains(t, err.Error(), "API key")
	assert.Equal(t, "raw words", got)

	_, err = c.StartConversation(context.Background())
	require.ErrorIs(t, err, apperr.ErrGatewayUnavailable)
}

func TestClaude_EnhanceBlankIsNoop(t *testing.T) {
	t.Parallel()

	c, fake := newTestClaude(t)

	got, err := c.Enhance(context.Background(), "   ", StyleStorytelling)
	require.NoError(t, err)
	assert.Equal(t, "   ", got)
	assert.Empty(t, fake.requests)
}

func TestClaude_Enhance(t *testing.T) {
	t.Parallel()

	c, fake := newTestClaude(t, textBlock("  The kitchen smelled of cardamom.  "))

	got, err := c.Enhance(context.Background(), "kitchen smelled like cardamom", StyleStorytelling)
	require.NoError(t, err)
	assert.Equal(t, "The kitchen smelled of cardamom.", got)
	require.Len(t, fake.requests, 1)
}

func TestClaude_Conversation(t *testing.T) {
	t.Parallel()

	c, fake := newTestClaude(t,
		toolBlock(interviewTurnTool, map[string]any{
			"message": "What story would you like to tell?", "phase": PhaseDiscovery,
			"story_type": "", "themes": []string{}, "interview_complete": false,
		}),
		toolBlock(interviewTurnTool, map[string]any{
			"message": "Who was with you on that ferry?", "phase": PhaseLifeMapping,
			"story_type": "travel", "themes": []string{"family", "the sea"}, "interview_complete": false,
		}),
		toolBlock(interviewTurnTool, map[string]any{
			"message": "Thank you, I have what I need.", "phase": PhaseComplete,
			"story_type": "travel", "themes": []string{"the sea", "courage"}, "interview_complete": true,
		}),
		toolBlock(outlineTool, map[string]any{
			"title": "Crossing", "book_type": "travel", "estimated_length": "8,000 words",
			"themes": []string{}, "chapters": []map[string]any{{"title": "The Ferry", "theme": "departure"}},
		}),
	)
	ctx := context.Background()

	start, err := c.StartConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "session-1", start.SessionID)
	assert.Equal(t, "What story would you like to tell?", start.FirstPrompt)
	assert.Equal(t, []string{PhaseComplete}, start.TerminalPhases)

	reply, err := c.ContinueConversation(ctx, start.SessionID, "The summer we took the ferry to Crete.")
	require.NoError(t, err)
	assert.Equal(t, "Who was with you on that ferry?", reply.Reply)
	assert.Equal(t, "travel", reply.StoryType)
	assert.Equal(t, []string{"family", "the sea"}, reply.Themes)
	assert.False(t, reply.InterviewComplete)

	reply, err = c.ContinueConversation(ctx, start.SessionID, "My grandmother.")
	require.NoError(t, err)
	assert.True(t, reply.InterviewComplete)
	assert.Equal(t, []string{"family", "the sea", "courage"}, reply.Themes)

	// The third request replays the whole conversation as plain text turns.
	messages, ok := fake.requests[2]["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 5)

	outline, err := c.GenerateOutline(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Crossing", outline.Title)
	assert.Equal(t, []Chapter{{Title: "The Ferry", Theme: "departure"}}, outline.Chapters)
	assert.Equal(t, []string{"family", "the sea", "courage"}, outline.Themes)

	raw, err := json.Marshal(fake.requests[3]["messages"])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "Storyteller: My grandmother."))
}

func interviewTurnReply(message string) []map[string]any {
	return toolBlock(interviewTurnTool, map[string]any{
		"message": message, "phase": PhaseLifeMapping,
		"story_type": "memoir", "themes": []string{}, "interview_complete": false,
	})
}

func TestClaude_ConcurrentRepliesKeepEveryTurn(t *testing.T) {
	t.Parallel()

	c, fake := newTestClaude(t,
		interviewTurnReply("Tell me about your childhood."),
		interviewTurnReply("And then?"),
		interviewTurnReply("What happened next?"),
	)
	ctx := context.Background()

	start, err := c.StartConversation(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, msg := range []string{"We lived by the river.", "My father fixed boats."} {
		wg.Go(func() {
			_, err := c.ContinueConversation(ctx, start.SessionID, msg)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	// Each turn sees the one before it: 3 messages, then 5.
	fake.mu.Lock()
	requests := slices.Clone(fake.requests)
	fake.mu.Unlock()

	require.Len(t, requests, 3)
	sizes := []int{
		len(requests[1]["messages"].([]any)),
		len(requests[2]["messages"].([]any)),
	}
	assert.Equal(t, []int{3, 5}, sizes)

	c.mu.Lock()
	conv := c.conversations[start.SessionID]
	historyLen, turnCount := len(conv.history), len(conv.turns)
	c.mu.Unlock()

	assert.Equal(t, 6, historyLen)
	assert.Equal(t, 5, turnCount)
}

func TestClaude_IdleConversationsExpire(t *testing.T) {
	t.Parallel()

	c, _ := newTestClaude(t, interviewTurnReply("Where shall we begin?"))

	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	start, err := c.StartConversation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Conversations())

	clock = clock.Add(DefaultConversationTTL + time.Minute)

	_, err = c.ContinueConversation(context.Background(), start.SessionID, "Hello again")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 0, c.Conversations())
}

func TestClaude_ContinueUnknownSession(t *testing.T) {
	t.Parallel()

	c, _ := newTestClaude(t)

	_, err := c.ContinueConversation(context.Background(), "nope", "hello")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = c.ContinueConversation(context.Background(), "nope", "  ")
	require.ErrorIs(t, err, apperr.ErrEmptyAnswer)
}

func TestClaude_MissingToolUse(t *testing.T) {
	t.Parallel()

	c, _ := newTestClaude(t, textBlock("I forgot to call the tool"))

	_, err := c.StartConversation(context.Background())
	require.ErrorIs(t, err, apperr.ErrGatewayUnavailable)
	assert.Contains(t, err.Error(), interviewTurnTool)
}
