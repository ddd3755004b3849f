// Package camera defines the frame source contract consumed by the
// capture pipeline, plus a gocv-backed implementation for desktop webcams
// and a mock for tests and offline development. The streaming feed is
// passive: it delivers every frame it sees and the detection loop decides
// which ones to consume.
package camera

import (
	"context"
	"errors"
	"image"

	"github.com/veriscan/go-docscan/pkg/frame"
)

// Common errors returned by sources.
var (
	ErrAlreadyStreaming = errors.New("camera: already streaming")
	ErrNotOpen          = errors.New("camera: device not open")
)

// FrameFunc receives one raw frame. The frame is only valid for the
// duration of the call unless the receiver copies it.
type FrameFunc func(f *frame.RawFrame)

// Source is a live camera. Implementations deliver preview frames through
// StartStream and full-resolution stills through TakeStill.
type Source interface {
	// StartStream begins delivering frames to fn from a background
	// feed. Returns ErrAlreadyStreaming if a stream is active.
	StartStream(fn FrameFunc) error

	// StopStream halts frame delivery. Safe to call when not streaming.
	StopStream()

	// TakeStill captures one full-resolution still, independent of the
	// streaming feed.
	TakeStill(ctx context.Context) (image.Image, error)

	// SetFlash turns the flash on or off. Sources without a flash
	// treat this as a no-op.
	SetFlash(on bool) error

	// PreviewSize reports the natural preview dimensions as delivered
	// by the sensor, pre-rotation.
	PreviewSize() (width, height int)
}
