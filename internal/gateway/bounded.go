package gateway

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTimeout bounds every remote call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Bounded wraps a Gateway so every call runs under a deadline and every
// failure is logged. A timed-out transcription becomes a manual-entry outcome
// and a timed-out enhancement hands back the original text.
type Bounded struct {
	next    Gateway
	timeout time.Duration
	logger  *slog.Logger
}

// NewBounded wraps next with a per-call timeout. A non-positive timeout
// selects DefaultTimeout.
func NewBounded(next Gateway, timeout time.Duration, logger *slog.Logger) *Bounded {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Bounded{next: next, timeout: timeout, logger: logger}
}

var _ Gateway = (*Bounded)(nil)

// Transcribe forwards to the wrapped transcriber.
func (b *Bounded) Transcribe(ctx context.Context, audio Audio) Transcription {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	result := b.next.Transcribe(ctx, audio)

	if ctx.Err() != nil && result.Status == StatusTranscribed {
		b.logger.Warn("transcription finished after deadline", "error", ctx.Err())
	}

	if result.Status == StatusManualEntry && result.Message == "" {
		result.Message = MessageManualEntry
	}

	b.logger.Debug("transcription complete", "status", result.Status.String(), "chars", len(result.Text))

	return result
}

// Enhance forwards to the wrapped enhancer, returning the original text on failure.
func (b *Bounded) Enhance(ctx context.Context, text string, style Style) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	enhanced, err := b.next.Enhance(ctx, text, style)
	if err != nil {
		b.logger.Error("enhancement failed", "error", err, "style", string(style))
		return text, wrapUnavailable("failed to enhance text", err)
	}

	return enhanced, nil
}

// StartConversation forwards to the wrapped interviewer.
func (b *Bounded) StartConversation(ctx context.Context) (ConversationStart, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start, err := b.next.StartConversation(ctx)
	if err != nil {
		b.logger.Error("failed to start conversation", "error", err)
		return ConversationStart{}, wrapUnavailable("failed to start conversation", err)
	}

	return start, nil
}

// ContinueConversation forwards to the wrapped interviewer.
func (b *Bounded) ContinueConversation(ctx context.Context, sessionID, message string) (ConversationReply, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	reply, err := b.next.ContinueConversation(ctx, sessionID, message)
	if err != nil {
		b.logger.Error("failed to continue conversation", "error", err, "session_id", sessionID)
		return ConversationReply{}, classify("failed to continue conversation", err)
	}

	return reply, nil
}

// GenerateOutline forwards to the wrapped interviewer.
func (b *Bounded) GenerateOutline(ctx context.Context, sessionID string) (Outline, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	outline, err := b.next.GenerateOutline(ctx, sessionID)
	if err != nil {
		b.logger.Error("failed to generate outline", "error", err, "session_id", sessionID)
		return Outline{}, classify("failed to generate outline", err)
	}

	return outline, nil
}
