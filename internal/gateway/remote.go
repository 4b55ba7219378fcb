package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
)

const defaultHTTPTimeout = 90 * time.Second

// Remote talks to a lifebooks server over its JSON API, letting a terminal
// client share one set of API keys held by the server.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

// RemoteOption customizes the remote client.
type RemoteOption func(*Remote)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *Remote) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// NewRemote creates a client for the server at baseURL.
func NewRemote(baseURL string, opts ...RemoteOption) *Remote {
	r := &Remote{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

var _ Gateway = (*Remote)(nil)

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// Transcribe uploads the recording as multipart form field "audio".
func (r *Remote) Transcribe(ctx context.Context, audio Audio) Transcription {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	filename := audio.Filename
	if filename == "" {
		filename = "recording.mp3"
	}
	mediaType := audio.MediaType
	if mediaType == "" {
		mediaType = "audio/mpeg"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, filename))
	header.Set("Content-Type", mediaType)

	part, err := form.CreatePart(header)
	if err == nil {
		_, err = part.Write(audio.Data)
	}
	if err == nil {
		err = form.Close()
	}
	if err != nil {
		slog.Error("failed to build transcription upload", "error", err)
		return ManualEntry()
	}

	var resp transcribeResponse
	if err := r.do(ctx, http.MethodPost, "/api/transcribe", form.FormDataContentType(), &body, &resp); err != nil {
		slog.Error("remote transcription failed", "error", err)
		return ManualEntry()
	}

	switch resp.Status {
	case StatusManualEntry.String():
		return ManualEntry()
	case StatusNoSpeech.String():
		return NoSpeech()
	default:
		return Transcribed(resp.Transcription)
	}
}

// Enhance posts text to the enhancement endpoint.
func (r *Remote) Enhance(ctx context.Context, text string, style Style) (string, error) {
	var resp struct {
		EnhancedText string `json:"enhanced_text"`
	}

	req := map[string]string{"text": text, "enhancement_type": string(style)}
	if err := r.postJSON(ctx, "/api/enhance-text", req, &resp); err != nil {
		return text, wrapUnavailable("remote enhance", err)
	}

	return resp.EnhancedText, nil
}

// StartConversation opens an interview on the server.
func (r *Remote) StartConversation(ctx context.Context) (ConversationStart, error) {
	var resp struct {
		SessionID      string   `json:"session_id"`
		InitialMessage string   `json:"initial_message"`
		TerminalPhases []string `json:"terminal_phases"`
	}

	if err := r.postJSON(ctx, "/api/interview/start", struct{}{}, &resp); err != nil {
		return ConversationStart{}, wrapUnavailable("remote start conversation", err)
	}

	return ConversationStart{
		SessionID:      resp.SessionID,
		FirstPrompt:    resp.InitialMessage,
		TerminalPhases: resp.TerminalPhases,
	}, nil
}

// ContinueConversation sends one user message.
func (r *Remote) ContinueConversation(ctx context.Context, sessionID, message string) (ConversationReply, error) {
	var resp struct {
		Message           string   `json:"message"`
		Phase             string   `json:"phase"`
		StoryType         string   `json:"story_type"`
		Themes            []string `json:"themes"`
		InterviewComplete bool     `json:"interview_complete"`
	}

	req := map[string]string{"session_id": sessionID, "message": message}
	if err := r.postJSON(ctx, "/api/interview/respond", req, &resp); err != nil {
		return ConversationReply{}, classify("remote continue conversation", err)
	}

	return ConversationReply{
		Reply:             resp.Message,
		Phase:             resp.Phase,
		StoryType:         resp.StoryType,
		Themes:            resp.Themes,
		InterviewComplete: resp.InterviewComplete,
	}, nil
}

// GenerateOutline asks the server for the book outline.
func (r *Remote) GenerateOutline(ctx context.Context, sessionID string) (Outline, error) {
	var outline Outline

	if err := r.postJSON(ctx, "/api/interview/outline", map[string]string{"session_id": sessionID}, &outline); err != nil {
		return Outline{}, classify("remote generate outline", err)
	}

	return outline, nil
}

func (r *Remote) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	return r.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(payload), out)
}

func (r *Remote) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	if r.baseURL == "" {
		return errors.New("remote gateway url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		statusErr := &httpStatusError{StatusCode: resp.StatusCode, Body: string(data)}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", apperr.ErrNotFound, statusErr)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, statusErr)
		default:
			return statusErr
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
