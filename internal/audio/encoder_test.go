package audio_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
	"github.com/salcon83/lifebooks-ai/internal/audio"
)

func sine(samples int) []byte {
	pcm := make([]byte, samples*2)
	for i := range samples {
		v := int16((i % 64) * 400)
		pcm[i*2] = byte(v)
		pcm[i*2+1] = byte(v >> 8)
	}

	return pcm
}

func TestEncoder_StreamsUntilClosed(t *testing.T) {
	t.Parallel()

	input := make(chan []byte)
	var out bytes.Buffer

	enc, err := audio.NewEncoder(audio.EncoderConfig{}, input, &out)
	require.NoError(t, err)
	require.NoError(t, enc.Start(context.Background()))

	// One second of audio at 16kHz, delivered in small packets.
	pcm := sine(16000)
	for i := 0; i < len(pcm); i += 640 {
		input <- pcm[i:min(i+640, len(pcm))]
	}
	close(input)

	require.NoError(t, enc.Wait())
	assert.NotZero(t, out.Len())
	assert.Equal(t, time.Second, enc.Duration())
}

func TestEncoder_ContextCancelled(t *testing.T) {
	t.Parallel()

	input := make(chan []byte)
	var out bytes.Buffer

	enc, err := audio.NewEncoder(audio.EncoderConfig{}, input, &out)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, enc.Start(ctx))
	cancel()

	err = enc.Wait()
	require.ErrorIs(t, err, context.Canceled)

	select {
	case <-enc.Done():
	default:
		t.Fatal("Done should be closed once the encoder exits")
	}
}

func TestEncoder_StartTwice(t *testing.T) {
	t.Parallel()

	input := make(chan []byte)
	close(input)

	enc, err := audio.NewEncoder(audio.EncoderConfig{}, input, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, enc.Start(context.Background()))
	require.Error(t, enc.Start(context.Background()))
	require.NoError(t, enc.Wait())
}

func TestNewEncoder_Validation(t *testing.T) {
	t.Parallel()

	_, err := audio.NewEncoder(audio.EncoderConfig{}, nil, &bytes.Buffer{})
	require.Error(t, err)

	_, err = audio.NewEncoder(audio.EncoderConfig{}, make(chan []byte), nil)
	require.Error(t, err)

	_, err = audio.NewEncoder(audio.EncoderConfig{Channels: 2}, make(chan []byte), &bytes.Buffer{})
	require.ErrorContains(t, err, "mono")
}

func TestEncodeMP3(t *testing.T) {
	t.Parallel()

	data, err := audio.EncodeMP3(context.Background(), audio.EncoderConfig{}, sine(8000))
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	empty, err := audio.EncodeMP3(context.Background(), audio.EncoderConfig{}, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEncoderConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := audio.EncoderConfig{}.WithDefaults()
	assert.Equal(t, audio.DefaultSampleRate, cfg.SampleRate)
	assert.Equal(t, audio.DefaultChannels, cfg.Channels)
	assert.Equal(t, audio.DefaultBufferThreshold, cfg.BufferThreshold)
	require.NoError(t, cfg.Validate())

	err := audio.EncoderConfig{SampleRate: -1, Channels: 1, BufferThreshold: 2}.Validate()
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	require.Error(t, audio.EncoderConfig{SampleRate: 16000, Channels: 2, BufferThreshold: 2}.Validate())
	require.Error(t, audio.EncoderConfig{SampleRate: 16000, Channels: 1, BufferThreshold: 3}.Validate())
}

func TestEncoderConfig_SamplesAndSpan(t *testing.T) {
	t.Parallel()

	cfg := audio.EncoderConfig{}.WithDefaults()
	assert.Equal(t, 3200, cfg.Samples(200*time.Millisecond))
	assert.Equal(t, time.Second, cfg.Span(32000))
	assert.Equal(t, time.Duration(0), audio.EncoderConfig{}.Span(32000))
}
