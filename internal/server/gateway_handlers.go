package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
	"github.com/salcon83/lifebooks-ai/internal/gateway"
)

// maxAudioBytes matches the Whisper upload ceiling.
const maxAudioBytes = 25 << 20

func (s *Server) handleTranscribe(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		abort(c, fmt.Errorf("%w: no audio file provided", apperr.ErrInvalidInput), nil)
		return
	}
	if file.Size > maxAudioBytes {
		abort(c, fmt.Errorf("%w: audio exceeds %d bytes", apperr.ErrInvalidInput, maxAudioBytes), nil)
		return
	}

	f, err := file.Open()
	if err != nil {
		abort(c, fmt.Errorf("failed to open upload: %w", err), nil)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		abort(c, fmt.Errorf("failed to read upload: %w", err), nil)
		return
	}

	mediaType := file.Header.Get("Content-Type")
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = "audio/mpeg"
	}

	t := s.deps.Gateway.Transcribe(c.Request.Context(), gateway.Audio{
		Data:      data,
		Filename:  file.Filename,
		MediaType: mediaType,
	})

	c.JSON(http.StatusOK, gin.H{
		"transcription": t.Text,
		"status":        t.Status.String(),
		"message":       t.Message,
	})
}

type enhanceRequest struct {
	Text            string `json:"text"`
	EnhancementType string `json:"enhancement_type"`
}

func (s *Server) handleEnhance(c *gin.Context) {
	var req enhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err), nil)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		abort(c, fmt.Errorf("%w: text is required", apperr.ErrEmptyAnswer), nil)
		return
	}

	style := gateway.Style(req.EnhancementType)
	if req.EnhancementType == "" {
		style = gateway.StyleStorytelling
	}
	if !style.Valid() {
		abort(c, fmt.Errorf("%w: unknown enhancement type %q", apperr.ErrInvalidInput, req.EnhancementType), nil)
		return
	}

	enhanced, err := s.deps.Gateway.Enhance(c.Request.Context(), req.Text, style)
	if err != nil {
		// The caller keeps the original text when enhancement fails.
		abort(c, err, gin.H{"enhanced_text": req.Text})
		return
	}

	c.JSON(http.StatusOK, gin.H{"enhanced_text": enhanced})
}

func (s *Server) handleInterviewStart(c *gin.Context) {
	start, err := s.deps.Gateway.StartConversation(c.Request.Context())
	if err != nil {
		abort(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":      start.SessionID,
		"initial_message": start.FirstPrompt,
		"terminal_phases": start.TerminalPhases,
	})
}

type respondRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) handleInterviewRespond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err), nil)
		return
	}
	if req.SessionID == "" {
		abort(c, fmt.Errorf("%w: session_id is required", apperr.ErrInvalidInput), nil)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		abort(c, fmt.Errorf("%w: message is required", apperr.ErrEmptyAnswer), nil)
		return
	}

	reply, err := s.deps.Gateway.ContinueConversation(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		abort(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            reply.Reply,
		"phase":              reply.Phase,
		"story_type":         reply.StoryType,
		"themes":             reply.Themes,
		"interview_complete": reply.InterviewComplete,
	})
}

func (s *Server) handleInterviewOutline(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		abort(c, fmt.Errorf("%w: session_id is required", apperr.ErrInvalidInput), nil)
		return
	}

	outline, err := s.deps.Gateway.GenerateOutline(c.Request.Context(), req.SessionID)
	if err != nil {
		abort(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, outline)
}
