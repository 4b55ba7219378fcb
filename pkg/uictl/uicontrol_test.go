package uictl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salcon83/lifebooks-ai/pkg/uictl"
)

func TestDialFunc(t *testing.T) {
	t.Parallel()

	n := 0
	var d uictl.Dial[int] = uictl.DialFunc[int](func() int {
		n++
		return n
	})

	assert.Equal(t, 1, d.Read())
	assert.Equal(t, 2, d.Read())
}

func TestPeak(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int16(0), uictl.Peak[int16](nil))
	assert.Equal(t, 12, uictl.Peak([]int{3, -12, 7}))
	assert.Equal(t, int16(32767), uictl.Peak([]int16{100, -32768}))
	assert.InDelta(t, 0.5, uictl.Peak([]float64{0.25, -0.5}), 1e-9)
}
