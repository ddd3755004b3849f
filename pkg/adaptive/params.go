// Package adaptive owns the mutable quality/scale/interval tuple the
// capture pipeline runs with, and the controller that adjusts it from
// observed device and network performance. Only the controller mutates
// parameters; the detection loop and the codec read snapshots.
package adaptive

import "time"

// Parameter bounds. Every adjustment is clamped so each field stays
// within its range at all times.
const (
	MinInterval = 50 * time.Millisecond
	MaxInterval = 200 * time.Millisecond

	MinQuality = 0.30
	MaxQuality = 0.95

	MinScale = 0.40
	MaxScale = 1.00
)

// Tuned defaults, deliberately between the extremes.
const (
	DefaultInterval = 150 * time.Millisecond
	DefaultQuality  = 0.50
	DefaultScale    = 0.60
)

// Parameters is the adaptive tuple read by the detection loop and codec.
type Parameters struct {
	// Interval is the detection loop tick period.
	Interval time.Duration

	// Quality is the JPEG quality factor in [0.30, 0.95].
	Quality float64

	// Scale is the pre-compression downscale factor in [0.40, 1.00].
	Scale float64
}

// DefaultParameters returns the tuned starting parameters.
func DefaultParameters() Parameters {
	return Parameters{
		Interval: DefaultInterval,
		Quality:  DefaultQuality,
		Scale:    DefaultScale,
	}
}

// clamp keeps every field inside its bound.
func (p Parameters) clamp() Parameters {
	if p.Interval < MinInterval {
		p.Interval = MinInterval
	}
	if p.Interval > MaxInterval {
		p.Interval = MaxInterval
	}
	if p.Quality < MinQuality {
		p.Quality = MinQuality
	}
	if p.Quality > MaxQuality {
		p.Quality = MaxQuality
	}
	if p.Scale < MinScale {
		p.Scale = MinScale
	}
	if p.Scale > MaxScale {
		p.Scale = MaxScale
	}
	return p
}
