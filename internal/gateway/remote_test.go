package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
)

func TestRemote_RoundTrip(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/transcribe", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("audio")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "recording.mp3", header.Filename)
		assert.Equal(t, "mp3bytes", string(data))
		_ = json.NewEncoder(w).Encode(map[string]string{"transcription": "hello", "status": "transcribed"})
	})
	mux.HandleFunc("POST /api/enhance-text", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "storytelling", req["enhancement_type"])
		_ = json.NewEncoder(w).Encode(map[string]string{"enhanced_text": "Hello, world."})
	})
	mux.HandleFunc("POST /api/interview/start", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id": "abc", "initial_message": "Tell me about yourself.", "terminal_phases": []string{"complete"},
		})
	})
	mux.HandleFunc("POST /api/interview/respond", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	r := NewRemote(srv.URL + "/")
	ctx := context.Background()

	tr := r.Transcribe(ctx, Audio{Data: []byte("mp3bytes")})
	assert.Equal(t, Transcription{Text: "hello", Status: StatusTranscribed}, tr)

	enhanced, err := r.Enhance(ctx, "hello world", StyleStorytelling)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world.", enhanced)

	start, err := r.StartConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, ConversationStart{SessionID: "abc", FirstPrompt: "Tell me about yourself.", TerminalPhases: []string{"complete"}}, start)

	_, err = r.ContinueConversation(ctx, "missing", "hi")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemote_Unreachable(t *testing.T) {
	t.Parallel()

	r := NewRemote("http://127.0.0.1:1")

	tr := r.Transcribe(context.Background(), Audio{Data: []byte("x")})
	assert.Equal(t, StatusManualEntry, tr.Status)

	got, err := r.Enhance(context.Background(), "keep me", StylePolish)
	require.ErrorIs(t, err, apperr.ErrGatewayUnavailable)
	assert.Equal(t, "keep me", got)
}
