package camera

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/veriscan/go-docscan/pkg/frame"
)

// MockSource replays synthetic frames at a fixed rate. Used by tests and
// the demo CLI when no physical camera is available.
type MockSource struct {
	// Frame is delivered on every tick. If nil, a mid-gray YUV frame
	// is generated once and reused.
	Frame *frame.RawFrame

	// Still is returned by TakeStill. If nil, a gray image is used.
	Still image.Image

	// Rate is the delivery period. Defaults to 33ms (~30fps).
	Rate time.Duration

	mu      sync.Mutex
	done    chan struct{}
	flashOn bool
	started bool
}

// StartStream begins delivering the configured frame on every tick.
func (m *MockSource) StartStream(fn FrameFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return ErrAlreadyStreaming
	}

	f := m.Frame
	if f == nil {
		f = grayYUVFrame(320, 240)
	}
	rate := m.Rate
	if rate == 0 {
		rate = 33 * time.Millisecond
	}

	m.started = true
	m.done = make(chan struct{})
	done := m.done

	go func() {
		ticker := time.NewTicker(rate)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn(f)
			}
		}
	}()
	return nil
}

// StopStream halts frame delivery.
func (m *MockSource) StopStream() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		close(m.done)
		m.started = false
	}
}

// TakeStill returns the configured still image.
func (m *MockSource) TakeStill(ctx context.Context) (image.Image, error) {
	if m.Still != nil {
		return m.Still, nil
	}
	img := image.NewRGBA(image.Rect(0, 0, 480, 640))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img, nil
}

// SetFlash records the requested flash state.
func (m *MockSource) SetFlash(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flashOn = on
	return nil
}

// FlashOn reports the last requested flash state.
func (m *MockSource) FlashOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flashOn
}

// PreviewSize reports the dimensions of the replayed frame.
func (m *MockSource) PreviewSize() (int, int) {
	if m.Frame != nil {
		return m.Frame.Width, m.Frame.Height
	}
	return 320, 240
}

// grayYUVFrame builds a uniform mid-gray planar frame.
func grayYUVFrame(w, h int) *frame.RawFrame {
	y := make([]byte, w*h)
	cw, ch := (w+1)/2, (h+1)/2
	u := make([]byte, cw*ch)
	v := make([]byte, cw*ch)
	for i := range y {
		y[i] = 128
	}
	for i := range u {
		u[i] = 128
		v[i] = 128
	}
	return frame.NewYUV420(w, h, y, u, v)
}
