// Package capture performs the one-shot high-resolution capture: it maps
// the on-screen target rectangle through the camera preview transform into
// source-image pixels and crops precisely. Independent of the streaming
// detection loop.
package capture

import "math"

// Size is a width/height pair in a single coordinate space.
type Size struct {
	Width  float64
	Height float64
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// MapTargetRect maps the on-screen target rectangle into source-image
// pixel coordinates.
//
// The preview is scaled so its height fills the screen; when the aspect
// ratios differ the preview is center-cropped horizontally, so screen X
// coordinates are offset by half the overflow before unscaling. The
// preview-space rectangle is then scaled by image/preview per dimension.
// Holds regardless of device aspect ratio.
func MapTargetRect(preview, screen, img Size, target Rect) Rect {
	previewScale := screen.Height / preview.Height
	scaledPreviewWidth := preview.Width * previewScale
	cropOffsetX := (scaledPreviewWidth - screen.Width) / 2

	px := (target.X + cropOffsetX) / previewScale
	py := target.Y / previewScale
	pw := target.Width / previewScale
	ph := target.Height / previewScale

	sx := img.Width / preview.Width
	sy := img.Height / preview.Height

	return Rect{
		X:      px * sx,
		Y:      py * sy,
		Width:  pw * sx,
		Height: ph * sy,
	}
}

// Expand grows the rectangle by margin pixels on every side.
func (r Rect) Expand(margin float64) Rect {
	return Rect{
		X:      r.X - margin,
		Y:      r.Y - margin,
		Width:  r.Width + 2*margin,
		Height: r.Height + 2*margin,
	}
}

// Clamp restricts the rectangle to [0, bounds].
func (r Rect) Clamp(bounds Size) Rect {
	x0 := math.Max(r.X, 0)
	y0 := math.Max(r.Y, 0)
	x1 := math.Min(r.X+r.Width, bounds.Width)
	y1 := math.Min(r.Y+r.Height, bounds.Height)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
