package camera

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/veriscan/go-docscan/internal/log"
	"github.com/veriscan/go-docscan/pkg/frame"
)

// GoCVSource captures from a local webcam via OpenCV. It exists for
// desktop development; on device the host app supplies its own Source
// backed by the platform camera stack.
type GoCVSource struct {
	deviceID int

	mu      sync.Mutex
	capture *gocv.VideoCapture
	done    chan struct{}
}

// NewGoCVSource creates a source for the given capture device index.
func NewGoCVSource(deviceID int) *GoCVSource {
	return &GoCVSource{deviceID: deviceID}
}

// Open acquires the capture device.
func (s *GoCVSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture != nil {
		return nil
	}
	cap, err := gocv.OpenVideoCapture(s.deviceID)
	if err != nil {
		return fmt.Errorf("camera: open device %d: %w", s.deviceID, err)
	}
	s.capture = cap
	return nil
}

// Close releases the capture device.
func (s *GoCVSource) Close() {
	s.StopStream()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture != nil {
		s.capture.Close()
		s.capture = nil
	}
}

// StartStream reads frames from the webcam and delivers them as packed
// BGRA RawFrames.
func (s *GoCVSource) StartStream(fn FrameFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture == nil {
		return ErrNotOpen
	}
	if s.done != nil {
		return ErrAlreadyStreaming
	}
	s.done = make(chan struct{})
	done := s.done
	cap := s.capture

	go func() {
		mat := gocv.NewMat()
		bgra := gocv.NewMat()
		defer mat.Close()
		defer bgra.Close()

		for {
			select {
			case <-done:
				return
			default:
			}

			if ok := cap.Read(&mat); !ok || mat.Empty() {
				time.Sleep(10 * time.Millisecond)
				continue
			}

			gocv.CvtColor(mat, &bgra, gocv.ColorBGRToBGRA)
			buf := bgra.ToBytes()
			pix := make([]byte, len(buf))
			copy(pix, buf)
			fn(frame.NewBGRA(bgra.Cols(), bgra.Rows(), pix))
		}
	}()
	return nil
}

// StopStream halts the webcam read loop.
func (s *GoCVSource) StopStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}

// TakeStill grabs one frame from the device at its current resolution.
func (s *GoCVSource) TakeStill(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	cap := s.capture
	s.mu.Unlock()
	if cap == nil {
		return nil, ErrNotOpen
	}

	mat := gocv.NewMat()
	defer mat.Close()
	if ok := cap.Read(&mat); !ok || mat.Empty() {
		return nil, fmt.Errorf("camera: still capture read failed")
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("camera: still convert: %w", err)
	}
	return img, nil
}

// SetFlash is a no-op: webcams have no flash.
func (s *GoCVSource) SetFlash(on bool) error {
	log.Debug("camera flash request ignored", "on", on)
	return nil
}

// PreviewSize reports the device capture dimensions.
func (s *GoCVSource) PreviewSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture == nil {
		return 0, 0
	}
	w := int(s.capture.Get(gocv.VideoCaptureFrameWidth))
	h := int(s.capture.Get(gocv.VideoCaptureFrameHeight))
	return w, h
}
