package audio

import (
	"encoding/binary"
	"sync"
)

// SampleWindow keeps the most recent samples of a capture so a level meter
// can draw them. One goroutine writes while any number read.
type SampleWindow struct {
	mu      sync.RWMutex
	samples []int16
	head    int
	count   int
	view    int
}

// NewSampleWindow creates a window holding capacity samples. Read returns the
// newest view samples; a view of zero or more than capacity means all of them.
func NewSampleWindow(capacity, view int) *SampleWindow {
	if view <= 0 || view > capacity {
		view = capacity
	}

	return &SampleWindow{
		samples: make([]int16, capacity),
		view:    view,
	}
}

// WritePCM appends S16LE bytes, overwriting the oldest samples when full.
func (w *SampleWindow) WritePCM(data []byte) {
	w.Write(BytesToInt16(data))
}

// Write appends samples, overwriting the oldest when full.
func (w *SampleWindow) Write(samples []int16) {
	if len(samples) == 0 || len(w.samples) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	capacity := len(w.samples)
	for _, sample := range samples {
		w.samples[w.head] = sample
		w.head = (w.head + 1) % capacity

		if w.count < capacity {
			w.count++
		}
	}
}

// Read returns the newest samples in chronological order.
func (w *SampleWindow) Read() []int16 {
	return w.Last(w.view)
}

// Last returns up to n of the newest samples in chronological order.
func (w *SampleWindow) Last(n int) []int16 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.count == 0 || n <= 0 {
		return nil
	}

	n = min(n, w.count)
	capacity := len(w.samples)
	start := (w.head - n + capacity) % capacity

	out := make([]int16, n)
	for i := range n {
		out[i] = w.samples[(start+i)%capacity]
	}

	return out
}

// Peak returns the largest absolute amplitude currently held.
func (w *SampleWindow) Peak() int16 {
	var peak int32
	for _, s := range w.Last(w.count) {
		v := int32(s)
		if v < 0 {
			v = -v
		}
		peak = max(peak, v)
	}

	return int16(min(peak, 32767))
}

// Reset forgets every sample.
func (w *SampleWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.head = 0
	w.count = 0
}

// Len returns how many samples are held.
func (w *SampleWindow) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.count
}

// BytesToInt16 converts S16LE bytes to samples. A trailing odd byte is ignored.
func BytesToInt16(data []byte) []int16 {
	n := len(data) / 2
	if n == 0 {
		return nil
	}

	samples := make([]int16, n)
	for i := range n {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	return samples
}
