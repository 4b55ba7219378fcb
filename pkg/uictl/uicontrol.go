// Package uictl holds read-only controls that background producers expose to
// UI components.
package uictl

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

// Dial is a control that can read some value.
type Dial[N Number] interface {
	Read() N
}

// DialFunc adapts a getter to a Dial.
type DialFunc[N Number] func() N

func (f DialFunc[N]) Read() N { return f() }

// Levels is a control that reads a window of recent levels.
type Levels[N Number] interface {
	Read() []N
}

// Peak returns the largest magnitude in levels, or zero when empty. The
// most negative integer saturates to the largest positive one.
func Peak[N constraints.Signed | constraints.Float](levels []N) N {
	var p N
	for _, v := range levels {
		if v < 0 {
			v = -v
			if v < 0 {
				v = -(v + 1)
			}
		}
		p = max(p, v)
	}

	return p
}
