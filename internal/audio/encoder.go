// Package audio turns captured PCM into an MP3 payload and keeps a rolling
// window of recent samples for level meters.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

// Encoder drains S16LE mono PCM packets from a channel and writes MP3 frames
// to an io.Writer in batches of EncoderConfig.BufferThreshold bytes. It stops
// when the input channel is closed, flushing whatever is buffered.
type Encoder struct {
	config EncoderConfig
	input  <-chan []byte
	output io.Writer

	mp3     *mp3encoder.Encoder
	pending []byte
	pcmIn   atomic.Int64

	wg      sync.WaitGroup
	done    chan struct{}
	errOnce sync.Once
	err     error
}

// NewEncoder creates an MP3 encoder reading from input and writing to output.
func NewEncoder(config EncoderConfig, input <-chan []byte, output io.Writer) (*Encoder, error) {
	if input == nil {
		return nil, errors.New("input channel cannot be nil")
	}

	if output == nil {
		return nil, errors.New("output writer cannot be nil")
	}

	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid encoder config: %w", err)
	}

	return &Encoder{
		config:  config,
		input:   input,
		output:  output,
		pending: make([]byte, 0, config.BufferThreshold),
		done:    make(chan struct{}),
	}, nil
}

// Start launches the encoding goroutine. Cancelling ctx aborts encoding with
// an error; closing the input channel finishes it cleanly.
func (e *Encoder) Start(ctx context.Context) error {
	if e.mp3 != nil {
		return errors.New("encoder already started")
	}

	// shine-mp3 mis-steps mono input, so frames are always encoded as stereo.
	e.mp3 = mp3encoder.NewEncoder(e.config.SampleRate, 2)

	e.wg.Go(func() {
		defer close(e.done)

		for {
			select {
			case data, ok := <-e.input:
				if !ok {
					if err := e.encodePending(); err != nil {
						e.setError(fmt.Errorf("failed to flush encoder: %w", err))
					}
					return
				}

				e.pcmIn.Add(int64(len(data)))
				e.pending = append(e.pending, data...)

				if len(e.pending) >= e.config.BufferThreshold {
					if err := e.encodePending(); err != nil {
						e.setError(err)
						return
					}
				}

			case <-ctx.Done():
				e.setError(fmt.Errorf("encoder context cancelled: %w", ctx.Err()))
				return
			}
		}
	})

	return nil
}

// Done is closed once the encoding goroutine has exited, cleanly or not.
// Producers select on it so they never block on an encoder that stopped
// reading.
func (e *Encoder) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until encoding completes and returns the first error, if any.
func (e *Encoder) Wait() error {
	e.wg.Wait()

	return e.err
}

// Duration reports how much audio has been consumed so far.
func (e *Encoder) Duration() time.Duration {
	return e.config.Span(e.pcmIn.Load())
}

func (e *Encoder) encodePending() error {
	if len(e.pending) < 2 {
		return nil
	}

	mono, err := decodePCM(e.pending)
	if err != nil {
		return err
	}

	stereo := monoToStereo(mono)

	slog.Debug("encoding MP3 batch", "samples", len(mono))

	if err := e.mp3.Write(e.output, stereo); err != nil {
		return fmt.Errorf("failed to encode audio to MP3: %w", err)
	}

	e.pending = e.pending[:0]

	return nil
}

func (e *Encoder) setError(err error) {
	e.errOnce.Do(func() {
		e.err = err
		slog.Debug("encoder error", "error", err)
	})
}

func decodePCM(data []byte) ([]int16, error) {
	samples := make([]int16, len(data)/2)
	if err := binary.Read(bytes.NewReader(data[:len(samples)*2]), binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to read PCM samples: %w", err)
	}

	return samples, nil
}

func monoToStereo(mono []int16) []int16 {
	stereo := make([]int16, len(mono)*2)
	for i, sample := range mono {
		stereo[i*2] = sample
		stereo[i*2+1] = sample
	}

	return stereo
}

// EncodeMP3 encodes a complete PCM buffer in one call.
func EncodeMP3(ctx context.Context, config EncoderConfig, pcm []byte) ([]byte, error) {
	input := make(chan []byte, 1)
	input <- pcm
	close(input)

	var out bytes.Buffer

	enc, err := NewEncoder(config, input, &out)
	if err != nil {
		return nil, err
	}

	if err := enc.Start(ctx); err != nil {
		return nil, err
	}

	if err := enc.Wait(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}
