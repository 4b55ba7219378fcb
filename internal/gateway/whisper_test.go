package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWhisperServer(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			http.NotFound(w, r)
			return
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"text": text})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestWhisper_MissingAPIKey(t *testing.T) {
	t.Parallel()

	w := NewWhisper("")

	got := w.Transcribe(context.Background(), Audio{Data: []byte("fake audio data")})

	assert.Equal(t, StatusManualEntry, got.Status)
	assert.Equal(t, MessageManualEntry, got.Message)
}

func TestWhisper_EmptyRecording(t *testing.T) {
	t.Parallel()

	w := NewWhisper("test-key")

	got := w.Transcribe(context.Background(), Audio{})

	assert.Equal(t, StatusManualEntry, got.Status)
}

func TestWhisper_Transcribe(t *testing.T) {
	t.Parallel()

	srv := newWhisperServer(t, http.StatusOK, "I grew up by the river.")
	w := NewWhisper("test-key", option.WithBaseURL(srv.URL+"/v1/"), option.WithMaxRetries(0))

	got := w.Transcribe(context.Background(), Audio{Data: []byte("ID3fake")})

	assert.Equal(t, StatusTranscribed, got.Status)
	assert.Equal(t, "I grew up by the river.", got.Text)
}

func TestWhisper_NoSpeech(t *testing.T) {
	t.Parallel()

	srv := newWhisperServer(t, http.StatusOK, "")
	w := NewWhisper("test-key", option.WithBaseURL(srv.URL+"/v1/"), option.WithMaxRetries(0))

	got := w.Transcribe(context.Background(), Audio{Data: []byte("ID3fake")})

	assert.Equal(t, StatusNoSpeech, got.Status)
	assert.Equal(t, MessageNoSpeech, got.Message)
}

func TestWhisper_ServerError(t *testing.T) {
	t.Parallel()

	srv := newWhisperServer(t, http.StatusInternalServerError, "")
	w := NewWhisper("test-key", option.WithBaseURL(srv.URL+"/v1/"), option.WithMaxRetries(0))

	got := w.Transcribe(context.Background(), Audio{Data: []byte("ID3fake")})

	assert.Equal(t, StatusManualEntry, got.Status)
}
