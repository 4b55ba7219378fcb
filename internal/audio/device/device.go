// Package device captures microphone audio with malgo.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/salcon83/lifebooks-ai/internal/recording"
	"github.com/salcon83/lifebooks-ai/pkg/collections"
)

// Config selects the capture format.
type Config struct {
	Format     malgo.FormatType
	Channels   int
	SampleRate int
	// Buffer is the packet channel capacity.
	Buffer int
}

// DefaultConfig captures 16kHz mono S16LE, the format the encoder expects.
func DefaultConfig() Config {
	return Config{
		Format:     malgo.FormatS16,
		Channels:   1,
		SampleRate: 16000,
		Buffer:     64,
	}
}

// Info describes a capture device.
type Info struct {
	Name        string
	IsDefault   bool
	FormatCount int
	Formats     []string
}

// Microphone opens the default capture device for each recording.
type Microphone struct {
	conf Config
}

// NewMicrophone creates a microphone that captures with conf.
func NewMicrophone(conf Config) *Microphone {
	if conf.Buffer <= 0 {
		conf.Buffer = DefaultConfig().Buffer
	}

	return &Microphone{conf: conf}
}

var _ recording.Device = (*Microphone)(nil)

// Acquire allocates and starts the capture device. The returned stream must
// be released, which stops the device and closes its packet channel.
func (m *Microphone) Acquire(ctx context.Context) (recording.Stream, error) {
	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	s := &stream{
		mgCtx:   mgCtx,
		packets: make(chan []byte, m.conf.Buffer),
	}

	devCnf := malgo.DefaultDeviceConfig(malgo.Capture)
	devCnf.Capture.Format = m.conf.Format
	devCnf.Capture.Channels = uint32(m.conf.Channels)
	devCnf.SampleRate = uint32(m.conf.SampleRate)

	callbacks := malgo.DeviceCallbacks{
		Data: s.onData,
	}

	s.mgDevice, err = malgo.InitDevice(mgCtx.Context, devCnf, callbacks)
	if err != nil {
		uninitializeContext(mgCtx)
		return nil, fmt.Errorf("failed to initialize malgo device: %w", err)
	}

	if err := s.mgDevice.Start(); err != nil {
		_ = s.Release()
		return nil, fmt.Errorf("failed to start malgo device: %w", err)
	}

	slog.Debug("capture device started", "sampleRate", m.conf.SampleRate, "channels", m.conf.Channels)

	return s, nil
}

// Enumerate lists the available capture devices.
func Enumerate(_ context.Context) ([]Info, error) {
	devCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer uninitializeContext(devCtx)

	captureDevices, err := devCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get capture devices: %w", err)
	}

	return collections.Apply(captureDevices, toInfo), nil
}

type stream struct {
	mgCtx    *malgo.AllocatedContext
	mgDevice *malgo.Device

	mu      sync.Mutex
	closed  bool
	packets chan []byte
	once    sync.Once
}

// onData runs on the audio thread. Packets are dropped rather than blocking
// it when the consumer falls behind.
func (s *stream) onData(_, samples []byte, _ uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	packet := make([]byte, len(samples))
	copy(packet, samples)

	select {
	case s.packets <- packet:
	default:
		slog.Debug("dropping capture packet", "bytes", len(packet))
	}
}

func (s *stream) Packets() <-chan []byte {
	return s.packets
}

func (s *stream) Release() error {
	var err error

	s.once.Do(func() {
		if s.mgDevice != nil {
			if stopErr := s.mgDevice.Stop(); stopErr != nil {
				err = fmt.Errorf("failed to stop malgo device: %w", stopErr)
			}
			s.mgDevice.Uninit()
		}

		uninitializeContext(s.mgCtx)

		s.mu.Lock()
		s.closed = true
		close(s.packets)
		s.mu.Unlock()
	})

	return err
}

func toInfo(mdi malgo.DeviceInfo) Info {
	formats := make([]string, len(mdi.Formats))
	for i, mf := range mdi.Formats {
		formats[i] = fmt.Sprintf("(SampleSizeBytes: %d, Channels: %d, SampleRate: %d)",
			malgo.SampleSizeInBytes(mf.Format),
			mf.Channels, mf.SampleRate)
	}

	return Info{
		Name:        mdi.Name(),
		IsDefault:   mdi.IsDefault != 0,
		FormatCount: int(mdi.FormatCount),
		Formats:     formats,
	}
}

func uninitializeContext(deviceCtx *malgo.AllocatedContext) {
	if deviceCtx == nil {
		return
	}

	if err := deviceCtx.Uninit(); err != nil {
		slog.Error("failed to uninitialize malgo context", "error", err)
	}
	deviceCtx.Free()
}
