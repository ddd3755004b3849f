// Package codec turns raw camera frames into compressed JPEG bytes ready
// for transmission: color conversion, optional downscaling, orientation
// correction and compression, all driven by the current adaptive
// parameters.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/veriscan/go-docscan/pkg/adaptive"
	"github.com/veriscan/go-docscan/pkg/frame"
)

// Encoder converts RawFrames into JPEG buffers. Stateless; safe for
// concurrent use.
type Encoder struct{}

// NewEncoder creates a frame encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode color-corrects, downscales, rotates and compresses one frame.
// A returned error means skip-this-frame, never a fatal condition.
func (e *Encoder) Encode(f *frame.RawFrame, params adaptive.Parameters) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var img *image.RGBA
	switch f.Format {
	case frame.FormatYUV420:
		img = yuv420ToRGBA(f)
	case frame.FormatBGRA:
		img = bgraToRGBA(f)
	default:
		return nil, fmt.Errorf("%w: %s", frame.ErrUnsupportedFormat, f.Format)
	}

	if params.Scale < 1.0 {
		img = scale(img, params.Scale)
	}

	// Sensors deliver landscape buffers in portrait mode; rotate to
	// match what the user sees.
	img = rotate90CW(img)

	var buf bytes.Buffer
	quality := int(math.Round(params.Quality * 100))
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("codec: jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

// yuv420ToRGBA converts planar 4:2:0 luma/chroma to RGB. Each 2x2 luma
// block shares one chroma sample pair.
func yuv420ToRGBA(f *frame.RawFrame) *image.RGBA {
	yPlane, uPlane, vPlane := f.Planes[0], f.Planes[1], f.Planes[2]
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))

	for row := 0; row < f.Height; row++ {
		yBase := row * yPlane.RowStride
		uBase := (row / 2) * uPlane.RowStride
		vBase := (row / 2) * vPlane.RowStride
		out := row * img.Stride

		for col := 0; col < f.Width; col++ {
			y := float64(yPlane.Data[yBase+col*yPlane.PixelStride])
			u := float64(uPlane.Data[uBase+(col/2)*uPlane.PixelStride]) - 128
			v := float64(vPlane.Data[vBase+(col/2)*vPlane.PixelStride]) - 128

			r := clampByte(y + 1.370705*v)
			g := clampByte(y - 0.337633*u - 0.698001*v)
			b := clampByte(y + 1.732446*u)

			o := out + col*4
			img.Pix[o] = r
			img.Pix[o+1] = g
			img.Pix[o+2] = b
			img.Pix[o+3] = 0xff
		}
	}
	return img
}

// bgraToRGBA reinterprets packed 4-channel color without per-pixel math
// beyond the channel swap.
func bgraToRGBA(f *frame.RawFrame) *image.RGBA {
	p := f.Planes[0]
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))

	for row := 0; row < f.Height; row++ {
		in := row * p.RowStride
		out := row * img.Stride
		for col := 0; col < f.Width; col++ {
			i := in + col*4
			o := out + col*4
			img.Pix[o] = p.Data[i+2]
			img.Pix[o+1] = p.Data[i+1]
			img.Pix[o+2] = p.Data[i]
			img.Pix[o+3] = p.Data[i+3]
		}
	}
	return img
}

// scale resamples to round(w*s) x round(h*s).
func scale(img *image.RGBA, s float64) *image.RGBA {
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * s))
	h := int(math.Round(float64(b.Dy()) * s))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// rotate90CW rotates clockwise: a pixel at (x, y) lands at (h-1-y, x).
func rotate90CW(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))

	for y := 0; y < h; y++ {
		in := y * img.Stride
		for x := 0; x < w; x++ {
			i := in + x*4
			o := x*dst.Stride + (h-1-y)*4
			dst.Pix[o] = img.Pix[i]
			dst.Pix[o+1] = img.Pix[i+1]
			dst.Pix[o+2] = img.Pix[i+2]
			dst.Pix[o+3] = img.Pix[i+3]
		}
	}
	return dst
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
