package detection

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/veriscan/go-docscan/internal/log"
	"github.com/veriscan/go-docscan/pkg/adaptive"
	"github.com/veriscan/go-docscan/pkg/camera"
	"github.com/veriscan/go-docscan/pkg/codec"
	"github.com/veriscan/go-docscan/pkg/frame"
	"github.com/veriscan/go-docscan/pkg/perf"
	"github.com/veriscan/go-docscan/pkg/protocol"
	"github.com/veriscan/go-docscan/pkg/transport"
)

// Tunable constants. The batch size and debounce window are client-side
// choices, not protocol-mandated values.
const (
	// BatchSize is how many frames are sent per acknowledgement cycle
	// before the loop waits for the backend.
	BatchSize = 3

	// debounceDelay coalesces bursty backend updates into a single
	// UI-facing emission.
	debounceDelay = 16 * time.Millisecond

	feedbackBuffer = 16
	captureBuffer  = 4
)

// Common errors returned by the pipeline.
var (
	ErrDisposed       = errors.New("detection: pipeline disposed")
	ErrAlreadyStarted = errors.New("detection: pipeline already started")
)

// Config wires a Pipeline to its collaborators.
type Config struct {
	// Channel is the backend connection. The pipeline takes ownership
	// and disposes it on Dispose.
	Channel transport.Channel

	// Source is the live camera feed.
	Source camera.Source

	// OutputDir is where captured images are written.
	// Defaults to the system temp directory.
	OutputDir string
}

// Pipeline is the timer-driven detection loop plus the interpreter for
// backend feedback. All mutable state is guarded by one mutex; the frame
// cell and pending flag are touched only by the loop and its callbacks.
type Pipeline struct {
	channel    transport.Channel
	source     camera.Source
	encoder    *codec.Encoder
	monitor    *perf.Monitor
	controller *adaptive.Controller
	outputDir  string

	mu          sync.Mutex
	disposed    bool
	started     bool
	pending     bool
	batchCount  int
	batchSentAt time.Time
	lastTick    time.Time
	latest      *frame.RawFrame
	lastChecks  protocol.Checks
	lastBox     *protocol.BoundingBox
	connecting  bool
	connected   bool
	loopDone    chan struct{}

	deb        *debouncer
	feedbackCh chan Feedback
	captureCh  chan CapturedImage
}

// NewPipeline creates a pipeline over the given transport and camera.
func NewPipeline(cfg Config) *Pipeline {
	monitor := perf.NewMonitor()
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = os.TempDir()
	}

	p := &Pipeline{
		channel:    cfg.Channel,
		source:     cfg.Source,
		encoder:    codec.NewEncoder(),
		monitor:    monitor,
		controller: adaptive.NewController(monitor),
		outputDir:  outputDir,
		deb:        newDebouncer(debounceDelay),
		feedbackCh: make(chan Feedback, feedbackBuffer),
		captureCh:  make(chan CapturedImage, captureBuffer),
	}
	p.controller.OnChange = p.restart
	return p
}

// Feedback returns the stream of UI-facing feedback events. Closed on
// Dispose.
func (p *Pipeline) Feedback() <-chan Feedback {
	return p.feedbackCh
}

// Captures returns the stream of captured images. Closed on Dispose.
func (p *Pipeline) Captures() <-chan CapturedImage {
	return p.captureCh
}

// Monitor exposes the performance monitor (read-mostly, for diagnostics).
func (p *Pipeline) Monitor() *perf.Monitor {
	return p.monitor
}

// Params returns the current adaptive parameter snapshot.
func (p *Pipeline) Params() adaptive.Parameters {
	return p.controller.Params()
}

// Start connects the transport, begins frame acquisition and starts the
// detection timer and adaptive controller.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return ErrDisposed
	}
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	p.mu.Unlock()

	p.channel.OnStatus(p.onStatus)
	p.channel.OnMessage(p.onMessage)
	p.channel.OnError(p.onError)

	if err := p.channel.Connect(ctx); err != nil {
		// The loop idles until the channel reports connected; the
		// caller owns the reconnect policy.
		log.Warn("initial backend connect failed", "err", err)
	}

	if err := p.source.StartStream(p.onFrame); err != nil {
		p.mu.Lock()
		p.started = false
		p.mu.Unlock()
		return fmt.Errorf("detection: start camera stream: %w", err)
	}

	p.controller.Start()
	p.startLoop(p.controller.Params().Interval)
	return nil
}

// Dispose permanently shuts the pipeline down: timers first, then frame
// acquisition, then the transport, then the output streams. Idempotent.
func (p *Pipeline) Dispose() {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.disposed = true
	loopDone := p.loopDone
	p.loopDone = nil
	p.latest = nil
	p.mu.Unlock()

	if loopDone != nil {
		close(loopDone)
	}
	p.controller.Stop()
	p.deb.stop()
	p.source.StopStream()
	p.channel.Dispose()

	p.mu.Lock()
	close(p.feedbackCh)
	close(p.captureCh)
	p.mu.Unlock()

	log.Info("detection pipeline disposed")
}

// startLoop (re)creates the detection timer goroutine.
func (p *Pipeline) startLoop(interval time.Duration) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	old := p.loopDone
	p.loopDone = make(chan struct{})
	done := p.loopDone
	p.mu.Unlock()

	if old != nil {
		close(old)
	}
	go p.runLoop(done, interval)
}

// restart applies a new interval without losing pending-request state.
func (p *Pipeline) restart(params adaptive.Parameters) {
	p.mu.Lock()
	if p.disposed || !p.started {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.startLoop(params.Interval)
	log.Debug("detection loop restarted", "interval", params.Interval)
}

func (p *Pipeline) runLoop(done chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p.tick(interval)
		}
	}
}

// tick performs one detection cycle: consume the latest frame, encode,
// send, and account for the batch.
func (p *Pipeline) tick(interval time.Duration) {
	p.mu.Lock()
	if p.disposed || !p.connected || p.pending {
		p.mu.Unlock()
		return
	}
	// Defensive rate limit in case the timer drifts or overlaps a
	// restart.
	if !p.lastTick.IsZero() && time.Since(p.lastTick) < interval {
		p.mu.Unlock()
		return
	}
	f := p.latest
	if f == nil {
		p.mu.Unlock()
		return
	}
	p.latest = nil
	p.lastTick = time.Now()
	p.mu.Unlock()

	params := p.controller.Params()
	start := time.Now()
	data, err := p.encoder.Encode(f, params)
	if err != nil {
		// Malformed frame: skip this tick, the feed will deliver
		// a fresh one.
		log.Debug("frame encode skipped", "err", err)
		return
	}
	p.monitor.AddProcessingSample(time.Since(start))

	if err := p.channel.Send(data); err != nil {
		log.Debug("frame send failed", "err", err)
		return
	}

	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.batchCount++
	if p.batchCount >= BatchSize {
		p.pending = true
		p.batchCount = 0
		p.batchSentAt = time.Now()
	}
	p.mu.Unlock()
}

// onFrame is the frame-acquisition callback. It only overwrites the
// single-slot latest-frame cell; the timer decides when to consume it.
func (p *Pipeline) onFrame(f *frame.RawFrame) {
	p.mu.Lock()
	if !p.disposed && p.started {
		p.latest = f
	}
	p.mu.Unlock()
}

// onStatus reacts to transport state changes. Error or disconnect clears
// in-flight tracking so sending resumes once reconnected.
func (p *Pipeline) onStatus(s transport.Status) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.connecting = s == transport.StatusConnecting
	p.connected = s == transport.StatusConnected
	if s == transport.StatusError || s == transport.StatusDisconnected {
		p.pending = false
		p.batchCount = 0
		p.batchSentAt = time.Time{}
	}
	fb := p.snapshotLocked()
	p.mu.Unlock()

	switch s {
	case transport.StatusConnecting:
		fb.Message = msgConnecting
		fb.Category = CategoryInfo
	case transport.StatusError, transport.StatusDisconnected:
		fb.Message = msgDisconnected
		fb.Category = CategoryError
	case transport.StatusConnected:
		fb.Message = msgConnected
		fb.Category = CategoryInfo
	}
	p.emitDebounced(fb)
}

func (p *Pipeline) onError(err error) {
	log.Warn("transport error", "err", err)
}

// acknowledge clears batch back-pressure and records the round-trip of
// the batch that was awaiting this response.
func (p *Pipeline) acknowledge() {
	p.mu.Lock()
	var rtt time.Duration
	if p.pending && !p.batchSentAt.IsZero() {
		rtt = time.Since(p.batchSentAt)
	}
	p.pending = false
	p.batchCount = 0
	p.batchSentAt = time.Time{}
	p.mu.Unlock()

	if rtt > 0 {
		p.monitor.AddNetworkSample(rtt)
	}
}

// snapshotLocked builds a feedback skeleton from last-known state.
// Caller must hold p.mu.
func (p *Pipeline) snapshotLocked() Feedback {
	return Feedback{
		Checks:      p.lastChecks,
		BoundingBox: p.lastBox,
		Connecting:  p.connecting,
		Connected:   p.connected,
	}
}

// emitDebounced schedules a feedback emission; within the debounce window
// only the most recent one is delivered.
func (p *Pipeline) emitDebounced(fb Feedback) {
	p.deb.schedule(func() {
		p.emitFeedback(fb)
	})
}

func (p *Pipeline) emitFeedback(fb Feedback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}
	select {
	case p.feedbackCh <- fb:
	default:
		// Consumer is behind; this snapshot is already stale.
		log.Debug("feedback dropped, consumer slow")
	}
}

func (p *Pipeline) emitCapture(img CapturedImage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}
	select {
	case p.captureCh <- img:
	default:
		log.Warn("capture event dropped, consumer slow", "path", img.Path)
	}
}
