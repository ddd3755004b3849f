// Package frame defines the raw camera frame model shared by the capture
// pipeline. Frames are ephemeral: the camera feed produces them, the
// detection loop consumes at most the latest one, and nothing retains them
// beyond a single processing cycle.
package frame

import (
	"errors"
	"fmt"
	"time"
)

// Common errors returned when validating frames.
var (
	ErrUnsupportedFormat = errors.New("frame: unsupported pixel format")
	ErrBadPlaneCount     = errors.New("frame: wrong number of planes for format")
	ErrShortPlane        = errors.New("frame: plane buffer too short")
)

// Format identifies the pixel layout of a RawFrame.
type Format int

const (
	// FormatYUV420 is planar luma/chroma with 4:2:0 subsampling
	// (three planes: Y, U, V; chroma at half resolution).
	FormatYUV420 Format = iota

	// FormatBGRA is packed 4-channel color, one plane, 4 bytes per pixel.
	FormatBGRA
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatYUV420:
		return "yuv420"
	case FormatBGRA:
		return "bgra"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Plane is one buffer of a RawFrame with its layout metadata.
// RowStride is the byte distance between vertically adjacent samples;
// PixelStride is the byte distance between horizontally adjacent samples
// (2 for interleaved chroma on some camera stacks, 1 for tightly planar).
type Plane struct {
	Data        []byte
	RowStride   int
	PixelStride int
}

// RawFrame is a single camera frame as delivered by the camera subsystem.
type RawFrame struct {
	Width     int
	Height    int
	Format    Format
	Planes    []Plane
	Timestamp time.Time
}

// Validate checks that the plane set matches the declared format and
// dimensions. Malformed frames are skipped by the pipeline, never fatal.
func (f *RawFrame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("frame: invalid dimensions %dx%d", f.Width, f.Height)
	}

	switch f.Format {
	case FormatYUV420:
		if len(f.Planes) != 3 {
			return fmt.Errorf("%w: yuv420 needs 3, got %d", ErrBadPlaneCount, len(f.Planes))
		}
		if err := f.Planes[0].check(f.Width, f.Height, "y"); err != nil {
			return err
		}
		cw, ch := (f.Width+1)/2, (f.Height+1)/2
		if err := f.Planes[1].check(cw, ch, "u"); err != nil {
			return err
		}
		if err := f.Planes[2].check(cw, ch, "v"); err != nil {
			return err
		}
		return nil

	case FormatBGRA:
		if len(f.Planes) != 1 {
			return fmt.Errorf("%w: bgra needs 1, got %d", ErrBadPlaneCount, len(f.Planes))
		}
		p := f.Planes[0]
		if p.PixelStride != 4 {
			return fmt.Errorf("frame: bgra pixel stride %d, want 4", p.PixelStride)
		}
		if p.RowStride < f.Width*4 {
			return fmt.Errorf("frame: bgra row stride %d < %d", p.RowStride, f.Width*4)
		}
		need := p.RowStride*(f.Height-1) + f.Width*4
		if len(p.Data) < need {
			return fmt.Errorf("%w: bgra has %d bytes, need %d", ErrShortPlane, len(p.Data), need)
		}
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Format)
	}
}

func (p Plane) check(width, height int, name string) error {
	if p.RowStride <= 0 || p.PixelStride <= 0 {
		return fmt.Errorf("frame: %s plane has invalid strides (%d,%d)", name, p.RowStride, p.PixelStride)
	}
	need := p.RowStride*(height-1) + p.PixelStride*(width-1) + 1
	if len(p.Data) < need {
		return fmt.Errorf("%w: %s plane has %d bytes, need %d", ErrShortPlane, name, len(p.Data), need)
	}
	return nil
}

// NewYUV420 builds a tightly-packed planar YUV420 frame. Convenience for
// camera sources and tests that produce contiguous planes.
func NewYUV420(width, height int, y, u, v []byte) *RawFrame {
	cw := (width + 1) / 2
	return &RawFrame{
		Width:  width,
		Height: height,
		Format: FormatYUV420,
		Planes: []Plane{
			{Data: y, RowStride: width, PixelStride: 1},
			{Data: u, RowStride: cw, PixelStride: 1},
			{Data: v, RowStride: cw, PixelStride: 1},
		},
		Timestamp: time.Now(),
	}
}

// NewBGRA builds a packed BGRA frame over an existing pixel buffer.
func NewBGRA(width, height int, pix []byte) *RawFrame {
	return &RawFrame{
		Width:  width,
		Height: height,
		Format: FormatBGRA,
		Planes: []Plane{
			{Data: pix, RowStride: width * 4, PixelStride: 4},
		},
		Timestamp: time.Now(),
	}
}
