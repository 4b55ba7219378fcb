package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
	"github.com/salcon83/lifebooks-ai/internal/config"
	"github.com/salcon83/lifebooks-ai/internal/gateway"
	"github.com/salcon83/lifebooks-ai/internal/interview"
	"github.com/salcon83/lifebooks-ai/internal/server"
	"github.com/salcon83/lifebooks-ai/internal/story"
)

type stubGateway struct {
	transcription gateway.Transcription
	gotAudio      gateway.Audio
	enhanceErr    error
	gotStyle      gateway.Style
}

func (g *stubGateway) Transcribe(_ context.Context, a gateway.Audio) gateway.Transcription {
	g.gotAudio = a
	return g.transcription
}

func (g *stubGateway) Enhance(_ context.Context, text string, style gateway.Style) (string, error) {
	g.gotStyle = style
	if g.enhanceErr != nil {
		return text, g.enhanceErr
	}

	return "Enhanced: " + text, nil
}

func (g *stubGateway) StartConversation(context.Context) (gateway.ConversationStart, error) {
	return gateway.ConversationStart{
		SessionID:      "s-1",
		FirstPrompt:    "Tell me about yourself.",
		TerminalPhases: []string{gateway.PhaseComplete},
	}, nil
}

func (g *stubGateway) ContinueConversation(_ context.Context, sessionID, message string) (gateway.ConversationReply, error) {
	if sessionID != "s-1" {
		return gateway.ConversationReply{}, fmt.Errorf("conversation %s: %w", sessionID, apperr.ErrNotFound)
	}

	return gateway.ConversationReply{
		Reply:     "You said: " + message,
		Phase:     gateway.PhaseDeepDive,
		StoryType: "memoir",
		Themes:    []string{"family"},
	}, nil
}

func (g *stubGateway) GenerateOutline(context.Context, string) (gateway.Outline, error) {
	return gateway.Outline{
		Title:    "Roots",
		BookType: "memoir",
		Themes:   []string{"family"},
		Chapters: []gateway.Chapter{{Title: "Beginnings", Theme: "childhood"}},
	}, nil
}

func newTestServer(t *testing.T, gw gateway.Gateway) *server.Server {
	t.Helper()

	cfg := &config.Config{
		Env:        "test",
		Port:       "8080",
		HSTSMaxAge: 31536000,
		CSPMode:    "relaxed",
		LogLevel:   "info",
		PublicDir:  t.TempDir(),
	}

	// Only show errors during tests
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:       slog.LevelError,
		AddSource:   false,
		ReplaceAttr: nil,
	}))

	catalog, err := interview.DefaultCatalog()
	require.NoError(t, err)

	store, err := story.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return server.New(cfg, logger, server.Deps{Catalog: catalog, Gateway: gw, Store: store})
}

func do(t *testing.T, srv *server.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})

	w := do(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code, "Health endpoint should return 200 OK")
	assert.Contains(t, w.Body.String(), "healthy")
	assert.Contains(t, w.Body.String(), "lifebooks")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestStoryTypes(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})

	w := do(t, srv, http.MethodGet, "/api/story-types", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		StoryTypes []interview.StoryType `json:"story_types"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.StoryTypes, 6)
	assert.Equal(t, "autobiography", out.StoryTypes[0].ID)
	assert.Len(t, out.StoryTypes[0].Prompts, 9)
}

func TestTranscribe(t *testing.T) {
	gw := &stubGateway{transcription: gateway.Transcribed("I grew up by the sea")}
	srv := newTestServer(t, gw)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("audio", "recording.mp3")
	require.NoError(t, err)
	_, err = part.Write([]byte("ID3fake"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "I grew up by the sea", out["transcription"])
	assert.Equal(t, "transcribed", out["status"])
	assert.Equal(t, []byte("ID3fake"), gw.gotAudio.Data)
	assert.Equal(t, "recording.mp3", gw.gotAudio.Filename)
	assert.Equal(t, "audio/mpeg", gw.gotAudio.MediaType)
}

func TestTranscribe_MissingFile(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(""))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", decode(t, w)["kind"])
}

func TestEnhance(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		gw := &stubGateway{}
		srv := newTestServer(t, gw)

		w := do(t, srv, http.MethodPost, "/api/enhance-text", map[string]string{
			"text": "we moved in 1970", "enhancement_type": "polish",
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Enhanced: we moved in 1970", decode(t, w)["enhanced_text"])
		assert.Equal(t, gateway.StylePolish, gw.gotStyle)
	})

	t.Run("gateway failure keeps original text", func(t *testing.T) {
		gw := &stubGateway{enhanceErr: fmt.Errorf("enhance: %w", apperr.ErrGatewayUnavailable)}
		srv := newTestServer(t, gw)

		w := do(t, srv, http.MethodPost, "/api/enhance-text", map[string]string{"text": "original"})

		require.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "original", decode(t, w)["enhanced_text"])
		assert.Equal(t, gateway.StyleStorytelling, gw.gotStyle)
	})

	t.Run("blank text", func(t *testing.T) {
		srv := newTestServer(t, &stubGateway{})

		w := do(t, srv, http.MethodPost, "/api/enhance-text", map[string]string{"text": "  "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown style", func(t *testing.T) {
		srv := newTestServer(t, &stubGateway{})

		w := do(t, srv, http.MethodPost, "/api/enhance-text", map[string]string{
			"text": "x", "enhancement_type": "shouting",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInterviewEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})

	w := do(t, srv, http.MethodPost, "/api/interview/start", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)
	start := decode(t, w)
	assert.Equal(t, "s-1", start["session_id"])
	assert.Equal(t, []any{"complete"}, start["terminal_phases"])

	w = do(t, srv, http.MethodPost, "/api/interview/respond", map[string]string{"session_id": "s-1", "message": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	reply := decode(t, w)
	assert.Equal(t, "You said: hello", reply["message"])
	assert.Equal(t, "deep_dive", reply["phase"])
	assert.Equal(t, false, reply["interview_complete"])

	w = do(t, srv, http.MethodPost, "/api/interview/respond", map[string]string{"session_id": "nope", "message": "hello"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodPost, "/api/interview/respond", map[string]string{"session_id": "s-1", "message": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/interview/outline", map[string]string{"session_id": "s-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Roots", decode(t, w)["title"])
}

func TestStoryEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})

	w := do(t, srv, http.MethodPost, "/api/story", map[string]any{"title": "", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/story", map[string]any{
		"title":      "My Life",
		"content":    "# My Life\n\nI was born.",
		"story_type": "autobiography",
		"tags":       []string{"autobiography", "interview"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Story story.Story `json:"story"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.Story.ID)
	assert.Equal(t, "My Life", created.Story.Title)

	path := fmt.Sprintf("/api/story/%d", created.Story.ID)

	w = do(t, srv, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodPost, path+"/auto-save", map[string]string{"content": "# My Life\n\nI was born twice."})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decode(t, w)["last_auto_save"])

	w = do(t, srv, http.MethodGet, "/api/stories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["stories"], 1)

	w = do(t, srv, http.MethodGet, "/api/story/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodGet, "/api/story/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, &stubGateway{})

	w := do(t, srv, http.MethodGet, "/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// The remote client and the server share one wire contract.
func TestRemoteGatewayAgainstServer(t *testing.T) {
	gw := &stubGateway{transcription: gateway.NoSpeech()}
	ts := httptest.NewServer(newTestServer(t, gw).Router())
	t.Cleanup(ts.Close)

	remote := gateway.NewRemote(ts.URL)
	ctx := context.Background()

	got := remote.Transcribe(ctx, gateway.Audio{Data: []byte("mp3"), Filename: "a.mp3", MediaType: "audio/mpeg"})
	assert.Equal(t, gateway.StatusNoSpeech, got.Status)

	enhanced, err := remote.Enhance(ctx, "hello", gateway.StyleStorytelling)
	require.NoError(t, err)
	assert.Equal(t, "Enhanced: hello", enhanced)

	start, err := remote.StartConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s-1", start.SessionID)
	assert.Equal(t, []string{gateway.PhaseComplete}, start.TerminalPhases)

	reply, err := remote.ContinueConversation(ctx, start.SessionID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "You said: hi", reply.Reply)
	assert.Equal(t, []string{"family"}, reply.Themes)

	_, err = remote.ContinueConversation(ctx, "missing", "hi")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	outline, err := remote.GenerateOutline(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Beginnings", outline.Chapters[0].Title)

	gw.enhanceErr = apperr.ErrGatewayUnavailable
	enhanced, err = remote.Enhance(ctx, "keep me", gateway.StylePolish)
	require.ErrorIs(t, err, apperr.ErrGatewayUnavailable)
	assert.Equal(t, "keep me", enhanced)
}
