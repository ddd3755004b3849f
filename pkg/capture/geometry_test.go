package capture

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func rectEquals(a, b Rect) bool {
	return math.Abs(a.X-b.X) < floatTolerance &&
		math.Abs(a.Y-b.Y) < floatTolerance &&
		math.Abs(a.Width-b.Width) < floatTolerance &&
		math.Abs(a.Height-b.Height) < floatTolerance
}

// Fixed regression vector: preview 480x640, screen 360x800,
// target (50,100,200,150).
//
//	previewScale        = 800/640  = 1.25
//	scaledPreviewWidth  = 480*1.25 = 600
//	cropOffsetX         = (600-360)/2 = 120
//	preview-space rect  = ((50+120)/1.25, 100/1.25, 200/1.25, 150/1.25)
//	                    = (136, 80, 160, 120)
func TestMapTargetRect_RegressionVector(t *testing.T) {
	preview := Size{Width: 480, Height: 640}
	screen := Size{Width: 360, Height: 800}
	target := Rect{X: 50, Y: 100, Width: 200, Height: 150}

	// Image at preview resolution: scale factors are 1.
	got := MapTargetRect(preview, screen, Size{Width: 480, Height: 640}, target)
	want := Rect{X: 136, Y: 80, Width: 160, Height: 120}
	if !rectEquals(got, want) {
		t.Errorf("preview-resolution image: got %+v, want %+v", got, want)
	}

	// Full-resolution still at 2x: everything doubles.
	got = MapTargetRect(preview, screen, Size{Width: 960, Height: 1280}, target)
	want = Rect{X: 272, Y: 160, Width: 320, Height: 240}
	if !rectEquals(got, want) {
		t.Errorf("2x image: got %+v, want %+v", got, want)
	}
}

// When preview and screen aspect ratios match there is no center-crop
// offset and the mapping is a plain scale.
func TestMapTargetRect_NoCropWhenAspectsMatch(t *testing.T) {
	preview := Size{Width: 360, Height: 640}
	screen := Size{Width: 720, Height: 1280}
	target := Rect{X: 72, Y: 128, Width: 144, Height: 256}

	got := MapTargetRect(preview, screen, Size{Width: 360, Height: 640}, target)
	want := Rect{X: 36, Y: 64, Width: 72, Height: 128}
	if !rectEquals(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestRect_Expand(t *testing.T) {
	r := Rect{X: 100, Y: 50, Width: 40, Height: 30}.Expand(10)
	want := Rect{X: 90, Y: 40, Width: 60, Height: 50}
	if !rectEquals(r, want) {
		t.Errorf("got %+v, want %+v", r, want)
	}
}

func TestRect_ClampToBounds(t *testing.T) {
	bounds := Size{Width: 100, Height: 100}

	r := Rect{X: -10, Y: -5, Width: 50, Height: 50}.Clamp(bounds)
	want := Rect{X: 0, Y: 0, Width: 40, Height: 45}
	if !rectEquals(r, want) {
		t.Errorf("negative origin: got %+v, want %+v", r, want)
	}

	r = Rect{X: 80, Y: 90, Width: 50, Height: 50}.Clamp(bounds)
	want = Rect{X: 80, Y: 90, Width: 20, Height: 10}
	if !rectEquals(r, want) {
		t.Errorf("overflow: got %+v, want %+v", r, want)
	}

	// Entirely outside collapses to an empty rect at the edge.
	r = Rect{X: 200, Y: 200, Width: 10, Height: 10}.Clamp(bounds)
	if r.Width != 0 || r.Height != 0 {
		t.Errorf("outside rect should collapse: got %+v", r)
	}
}
