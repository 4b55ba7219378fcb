package audio_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salcon83/lifebooks-ai/internal/audio"
	"github.com/salcon83/lifebooks-ai/pkg/uictl"
)

var _ uictl.Levels[int16] = (*audio.SampleWindow)(nil)

func TestSampleWindow_Write(t *testing.T) {
	t.Parallel()

	w := audio.NewSampleWindow(10, 0)
	w.Write([]int16{1, 2, 3, 4, 5})

	require.Equal(t, []int16{1, 2, 3, 4, 5}, w.Read())
	require.Equal(t, 5, w.Len())
}

func TestSampleWindow_Empty(t *testing.T) {
	t.Parallel()

	w := audio.NewSampleWindow(10, 4)
	w.Write(nil)

	require.Equal(t, 0, w.Len())
	require.Nil(t, w.Read())
	require.Equal(t, int16(0), w.Peak())
}

func TestSampleWindow_Wraparound(t *testing.T) {
	t.Parallel()

	w := audio.NewSampleWindow(5, 0)
	w.Write([]int16{1, 2, 3, 4, 5, 6, 7})

	require.Equal(t, []int16{3, 4, 5, 6, 7}, w.Read())
	require.Equal(t, 5, w.Len())
}

func TestSampleWindow_View(t *testing.T) {
	t.Parallel()

	w := audio.NewSampleWindow(8, 3)
	w.Write([]int16{1, 2, 3, 4, 5})

	require.Equal(t, []int16{3, 4, 5}, w.Read())
	require.Equal(t, []int16{2, 3, 4, 5}, w.Last(4))
	require.Equal(t, []int16{1, 2, 3, 4, 5}, w.Last(50))
}

func TestSampleWindow_PeakAndReset(t *testing.T) {
	t.Parallel()

	w := audio.NewSampleWindow(8, 0)
	w.Write([]int16{10, -300, 200, -32768})

	require.Equal(t, int16(32767), w.Peak())

	w.Reset()
	require.Equal(t, 0, w.Len())

	w.Write([]int16{10, -300, 200})
	require.Equal(t, int16(300), w.Peak())
}

func TestSampleWindow_WritePCM(t *testing.T) {
	t.Parallel()

	w := audio.NewSampleWindow(4, 0)
	// 1, -1, and a dangling odd byte.
	w.WritePCM([]byte{0x01, 0x00, 0xff, 0xff, 0x07})

	require.Equal(t, []int16{1, -1}, w.Read())
}

func TestBytesToInt16(t *testing.T) {
	t.Parallel()

	require.Nil(t, audio.BytesToInt16([]byte{0x01}))
	require.Equal(t, []int16{256, 32767}, audio.BytesToInt16([]byte{0x00, 0x01, 0xff, 0x7f}))
}
