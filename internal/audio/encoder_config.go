package audio

import (
	"fmt"
	"time"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
)

// Recording payloads are 16kHz mono MP3, which Whisper accepts without
// resampling.
const (
	DefaultSampleRate      = 16000
	DefaultChannels        = 1
	DefaultBufferThreshold = 4096

	MediaType = "audio/mpeg"
)

// bytesPerSample is fixed by the S16LE capture format.
const bytesPerSample = 2

// EncoderConfig describes the PCM the encoder consumes.
type EncoderConfig struct {
	SampleRate int
	// Channels must be 1.
	Channels int
	// BufferThreshold is how many PCM bytes to gather before encoding a batch.
	BufferThreshold int
}

// Validate rejects configs the encoder cannot run with.
func (c EncoderConfig) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be positive, got %d", apperr.ErrInvalidInput, c.SampleRate)
	case c.Channels != 1:
		return fmt.Errorf("%w: recordings must be mono, got %d channels", apperr.ErrInvalidInput, c.Channels)
	case c.BufferThreshold <= 0 || c.BufferThreshold%bytesPerSample != 0:
		return fmt.Errorf("%w: buffer threshold must be a positive whole number of samples, got %d bytes",
			apperr.ErrInvalidInput, c.BufferThreshold)
	}

	return nil
}

// WithDefaults fills zero fields with defaults.
func (c EncoderConfig) WithDefaults() EncoderConfig {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.BufferThreshold == 0 {
		c.BufferThreshold = DefaultBufferThreshold
	}

	return c
}

// Samples is the number of samples per channel in d.
func (c EncoderConfig) Samples(d time.Duration) int {
	return int(d * time.Duration(c.SampleRate) / time.Second)
}

// Span is the duration covered by n bytes of PCM.
func (c EncoderConfig) Span(n int64) time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	samples := n / bytesPerSample / int64(c.Channels)

	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}
