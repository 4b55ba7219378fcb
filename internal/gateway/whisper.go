package gateway

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Whisper transcribes audio with the OpenAI Whisper API.
type Whisper struct {
	apiKey  string
	options []option.RequestOption
}

// NewWhisper creates a Whisper transcriber. Extra request options are applied
// after the API key, which lets tests point the client at a local server.
func NewWhisper(apiKey string, opts ...option.RequestOption) *Whisper {
	return &Whisper{
		apiKey:  apiKey,
		options: opts,
	}
}

// Transcribe sends the recording to Whisper. Any failure is logged and
// reported as a manual-entry outcome.
func (w *Whisper) Transcribe(ctx context.Context, audio Audio) Transcription {
	text, err := w.transcribe(ctx, audio)
	if err != nil {
		slog.Error("transcription failed", "error", err, "bytes", len(audio.Data))
		return ManualEntry()
	}

	return Transcribed(text)
}

func (w *Whisper) transcribe(ctx context.Context, audio Audio) (string, error) {
	if w.apiKey == "" {
		return "", errors.New("API key required: set OPENAI_API_KEY or run 'lifebooks config set-key openai'")
	}

	if len(audio.Data) == 0 {
		return "", errors.New("recording is empty")
	}

	filename := audio.Filename
	if filename == "" {
		filename = "recording.mp3"
	}

	mediaType := audio.MediaType
	if mediaType == "" {
		mediaType = "audio/mpeg"
	}

	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(w.apiKey)}, w.options...)...)

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio.Data), filename, mediaType),
		Model: openai.AudioModelWhisper1,
	}

	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", wrapUnavailable("failed to create transcription via Whisper API", err)
	}

	return resp.Text, nil
}
