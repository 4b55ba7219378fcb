package gateway

import (
	"context"
	"sync"
)

// fakeGateway is a scriptable Gateway for decorator tests.
type fakeGateway struct {
	mu sync.Mutex

	transcription Transcription
	enhanced      string
	enhanceErr    error
	start         ConversationStart
	startErr      error
	reply         ConversationReply
	replyErr      error
	outline       Outline
	outlineErr    error

	// block makes every call wait for ctx cancellation.
	block bool
	calls []string
}

func (f *fakeGateway) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeGateway) wait(ctx context.Context) error {
	if !f.block {
		return nil
	}
	<-ctx.Done()

	return ctx.Err()
}

func (f *fakeGateway) Transcribe(ctx context.Context, _ Audio) Transcription {
	f.record("transcribe")
	if err := f.wait(ctx); err != nil {
		return ManualEntry()
	}

	return f.transcription
}

func (f *fakeGateway) Enhance(ctx context.Context, text string, _ Style) (string, error) {
	f.record("enhance")
	if err := f.wait(ctx); err != nil {
		return text, err
	}
	if f.enhanceErr != nil {
		return text, f.enhanceErr
	}

	return f.enhanced, nil
}

func (f *fakeGateway) StartConversation(ctx context.Context) (ConversationStart, error) {
	f.record("start")
	if err := f.wait(ctx); err != nil {
		return ConversationStart{}, err
	}

	return f.start, f.startErr
}

func (f *fakeGateway) ContinueConversation(ctx context.Context, _, _ string) (ConversationReply, error) {
	f.record("continue")
	if err := f.wait(ctx); err != nil {
		return ConversationReply{}, err
	}

	return f.reply, f.replyErr
}

func (f *fakeGateway) GenerateOutline(ctx context.Context, _ string) (Outline, error) {
	f.record("outline")
	if err := f.wait(ctx); err != nil {
		return Outline{}, err
	}

	return f.outline, f.outlineErr
}
