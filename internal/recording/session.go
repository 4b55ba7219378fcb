// Package recording runs the capture lifecycle for one answer: acquire the
// device, count elapsed seconds, encode the payload and hand it off for
// transcription.
package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
	"github.com/salcon83/lifebooks-ai/internal/audio"
	"github.com/salcon83/lifebooks-ai/internal/gateway"
	"github.com/salcon83/lifebooks-ai/pkg/uictl"
)

// State is the recording lifecycle step.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stream is an acquired capture device delivering S16LE packets.
type Stream interface {
	Packets() <-chan []byte
	// Release stops capture and closes the packet channel. It must be safe
	// to call more than once.
	Release() error
}

// Device acquires a capture stream.
type Device interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Session manages one recording at a time. Its methods are safe to call from
// the UI goroutine while the ticker and transcription run in the background.
type Session struct {
	device      Device
	transcriber gateway.Transcriber
	encoderCfg  audio.EncoderConfig
	interval    time.Duration
	window      *audio.SampleWindow
	logger      *slog.Logger

	onTick          func(elapsed int)
	onTranscription func(gateway.Transcription)

	mu      sync.Mutex
	state   State
	elapsed int
	payload *gateway.Audio

	stream     Stream
	encoder    *audio.Encoder
	buf        *bytes.Buffer
	stopTicker context.CancelFunc
	tickerWG   sync.WaitGroup
	pumpWG     sync.WaitGroup

	transcribeWG sync.WaitGroup

	// life is cancelled by Close; it bounds encoding and transcription.
	life      context.Context
	closeLife context.CancelFunc
}

// Option configures a Session.
type Option func(*Session)

// WithTickInterval overrides the one-second elapsed counter period.
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithEncoderConfig overrides the MP3 encoder settings.
func WithEncoderConfig(cfg audio.EncoderConfig) Option {
	return func(s *Session) {
		s.encoderCfg = cfg.WithDefaults()
	}
}

// WithOnTick registers a callback run after every elapsed-time increment.
func WithOnTick(fn func(elapsed int)) Option {
	return func(s *Session) {
		s.onTick = fn
	}
}

// WithOnTranscription registers the callback that receives each
// transcription outcome. It runs on a background goroutine.
func WithOnTranscription(fn func(gateway.Transcription)) Option {
	return func(s *Session) {
		s.onTranscription = fn
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates an idle recording session.
func NewSession(device Device, transcriber gateway.Transcriber, opts ...Option) *Session {
	s := &Session{
		device:      device,
		transcriber: transcriber,
		encoderCfg:  audio.EncoderConfig{}.WithDefaults(),
		interval:    time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.life, s.closeLife = context.WithCancel(context.Background())

	// Two seconds of samples, drawn a fifth of a second at a time.
	s.window = audio.NewSampleWindow(s.encoderCfg.Samples(2*time.Second), s.encoderCfg.Samples(200*time.Millisecond))

	return s
}

// State returns the current lifecycle step.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Elapsed returns whole seconds recorded so far.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.elapsed
}

// Payload returns the last finalized recording, if any.
func (s *Session) Payload() (gateway.Audio, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.payload == nil {
		return gateway.Audio{}, false
	}

	return *s.payload, true
}

// Levels exposes recent samples for a level meter.
func (s *Session) Levels() uictl.Levels[int16] {
	return s.window
}

// ElapsedDial exposes the elapsed counter as a UI dial.
func (s *Session) ElapsedDial() uictl.Dial[int] {
	return uictl.DialFunc[int](s.Elapsed)
}

// Start acquires the device and begins recording. Device failures leave the
// session idle and wrap apperr.ErrDeviceUnavailable.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRecording:
		return fmt.Errorf("%w: already recording", apperr.ErrInvalidState)
	case StateStopped:
		return fmt.Errorf("%w: previous recording is still being finalized", apperr.ErrInvalidState)
	}
	if s.life.Err() != nil {
		return fmt.Errorf("%w: session is closed", apperr.ErrInvalidState)
	}

	stream, err := s.device.Acquire(ctx)
	if err != nil {
		s.logger.Warn("failed to acquire capture device", "error", err)
		return fmt.Errorf("%w: %w", apperr.ErrDeviceUnavailable, err)
	}

	pcm := make(chan []byte, 64)
	buf := &bytes.Buffer{}

	encoder, err := audio.NewEncoder(s.encoderCfg, pcm, buf)
	if err == nil {
		err = encoder.Start(s.life)
	}
	if err != nil {
		if releaseErr := stream.Release(); releaseErr != nil {
			s.logger.Error("failed to release capture device", "error", releaseErr)
		}
		return fmt.Errorf("failed to start encoder: %w", err)
	}

	s.window.Reset()

	s.pumpWG.Go(func() {
		defer close(pcm)
		for packet := range stream.Packets() {
			s.window.WritePCM(packet)
			select {
			case pcm <- packet:
			case <-encoder.Done():
				// keep draining so the device is never blocked
			}
		}
	})

	tickCtx, cancel := context.WithCancel(context.Background())

	s.stream = stream
	s.encoder = encoder
	s.buf = buf
	s.stopTicker = cancel
	s.payload = nil
	s.elapsed = 0
	s.state = StateRecording

	s.tickerWG.Go(func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	})

	s.logger.Info("recording started")

	return nil
}

// Tick advances the elapsed counter by one second. Ticks outside the
// recording state are ignored.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return
	}
	s.elapsed++
	elapsed := s.elapsed
	onTick := s.onTick
	s.mu.Unlock()

	if onTick != nil {
		onTick(elapsed)
	}
}

// detach ends capture and hands back the in-flight resources. The caller must
// hold s.mu.
func (s *Session) detach(next State) (Stream, *audio.Encoder, *bytes.Buffer, context.CancelFunc) {
	stream, encoder, buf, cancel := s.stream, s.encoder, s.buf, s.stopTicker
	s.stream, s.encoder, s.buf, s.stopTicker = nil, nil, nil, nil
	s.state = next

	return stream, encoder, buf, cancel
}

// release stops the ticker and the device and waits for the encoder.
func (s *Session) release(stream Stream, encoder *audio.Encoder, cancel context.CancelFunc) error {
	cancel()
	s.tickerWG.Wait()

	releaseErr := stream.Release()
	s.pumpWG.Wait()
	encodeErr := encoder.Wait()

	if releaseErr != nil {
		s.logger.Error("failed to release capture device", "error", releaseErr)
	}

	return errors.Join(releaseErr, encodeErr)
}

// Stop ends the recording, finalizes the payload and requests its
// transcription exactly once. The outcome arrives through the
// WithOnTranscription callback. The session is idle again once the request
// is issued. Calling Stop when not recording does nothing.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return nil
	}
	stream, encoder, buf, cancel := s.detach(StateStopped)
	elapsed := s.elapsed
	s.mu.Unlock()

	err := s.release(stream, encoder, cancel)
	if err != nil {
		s.logger.Error("failed to finalize recording", "error", err)
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		s.deliver(gateway.ManualEntry())

		return fmt.Errorf("failed to finalize recording: %w", err)
	}

	payload := gateway.Audio{
		Data:      buf.Bytes(),
		Filename:  "recording.mp3",
		MediaType: audio.MediaType,
		Duration:  encoder.Duration(),
	}

	s.mu.Lock()
	s.payload = &payload
	s.mu.Unlock()

	s.logger.Info("recording stopped", "elapsed", elapsed, "bytes", len(payload.Data))

	s.transcribeWG.Go(func() {
		tctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		stop := context.AfterFunc(s.life, cancel)
		defer stop()

		s.deliver(s.transcriber.Transcribe(tctx, payload))
	})

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()

	return nil
}

// Discard abandons the current recording without transcribing it, or drops
// the last payload when idle.
func (s *Session) Discard() error {
	s.mu.Lock()
	if s.state != StateRecording {
		s.payload = nil
		s.state = StateIdle
		s.mu.Unlock()
		return nil
	}
	stream, encoder, _, cancel := s.detach(StateIdle)
	s.payload = nil
	s.mu.Unlock()

	if err := s.release(stream, encoder, cancel); err != nil {
		return fmt.Errorf("failed to discard recording: %w", err)
	}

	s.logger.Info("recording discarded")

	return nil
}

// Close discards any active recording, cancels pending transcriptions and
// waits for their (fallback) results to be delivered. The session cannot be
// started again.
func (s *Session) Close() error {
	err := s.Discard()
	s.closeLife()
	s.Wait()

	return err
}

// Wait blocks until every issued transcription has been delivered.
func (s *Session) Wait() {
	s.transcribeWG.Wait()
}

func (s *Session) deliver(t gateway.Transcription) {
	if s.onTranscription != nil {
		s.onTranscription(t)
	}
}

// FormatElapsed renders seconds as MM:SS.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
