package capture

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"math"
	"os"

	"github.com/veriscan/go-docscan/internal/log"
	"github.com/veriscan/go-docscan/pkg/camera"
	"github.com/veriscan/go-docscan/pkg/detection"
)

// Margin added around the mapped target rectangle, in source-image
// pixels, to tolerate slight framing error.
const cropMargin = 10

// stillQuality is the JPEG quality for the persisted crop.
const stillQuality = 92

// Geometry describes the screen/preview layout at capture time, supplied
// by the UI boundary.
type Geometry struct {
	// Preview is the natural preview size as reported pre-rotation.
	Preview Size

	// Screen is the device screen size.
	Screen Size

	// Target is the on-screen document rectangle.
	Target Rect
}

// Finalizer performs the one-shot high-resolution capture.
type Finalizer struct {
	source    camera.Source
	outputDir string
}

// NewFinalizer creates a finalizer over the given camera. Crops are
// written to outputDir, or the system temp directory if empty.
func NewFinalizer(source camera.Source, outputDir string) *Finalizer {
	if outputDir == "" {
		outputDir = os.TempDir()
	}
	return &Finalizer{source: source, outputDir: outputDir}
}

// CaptureOnce takes a full-resolution still, crops it to the mapped
// target rectangle and persists the result. On any failure the error is
// logged and returned; no image is emitted.
func (f *Finalizer) CaptureOnce(ctx context.Context, geo Geometry) (detection.CapturedImage, error) {
	if err := f.source.SetFlash(false); err != nil {
		// Flash state is cosmetic; the capture still proceeds.
		log.Warn("disable flash failed", "err", err)
	}

	still, err := f.source.TakeStill(ctx)
	if err != nil {
		log.Error("still capture failed", "err", err)
		return detection.CapturedImage{}, fmt.Errorf("capture: still: %w", err)
	}

	// Normalize whatever the camera returned to one canonical format.
	canonical := toRGBA(still)
	bounds := canonical.Bounds()
	imgSize := Size{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}

	rect := MapTargetRect(geo.Preview, geo.Screen, imgSize, geo.Target).
		Expand(cropMargin).
		Clamp(imgSize)
	if rect.Width < 1 || rect.Height < 1 {
		log.Error("mapped crop rectangle is empty", "rect", fmt.Sprintf("%+v", rect))
		return detection.CapturedImage{}, fmt.Errorf("capture: empty crop rectangle")
	}

	crop := canonical.SubImage(image.Rect(
		int(math.Round(rect.X)),
		int(math.Round(rect.Y)),
		int(math.Round(rect.X+rect.Width)),
		int(math.Round(rect.Y+rect.Height)),
	))

	path, err := f.write(crop)
	if err != nil {
		log.Error("persist manual capture failed", "err", err)
		return detection.CapturedImage{}, err
	}

	log.Info("manual capture complete", "path", path)
	return detection.CapturedImage{Path: path, IsAutomatic: false}, nil
}

func (f *Finalizer) write(img image.Image) (string, error) {
	out, err := os.CreateTemp(f.outputDir, "docscan-manual-*.jpg")
	if err != nil {
		return "", fmt.Errorf("capture: create output: %w", err)
	}
	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: stillQuality}); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("capture: encode output: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return out.Name(), nil
}

// toRGBA converts any decoded image to RGBA without copying when it
// already is one.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
