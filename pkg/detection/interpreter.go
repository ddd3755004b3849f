package detection

import (
	"os"
	"path/filepath"

	"github.com/veriscan/go-docscan/internal/log"
	"github.com/veriscan/go-docscan/pkg/protocol"
)

// metricPriority is the fixed order in which failing metrics win the
// feedback message.
var metricPriority = []struct {
	name    string
	message string
	result  func(protocol.Checks) protocol.CheckResult
}{
	{"glare", msgGlare, func(c protocol.Checks) protocol.CheckResult { return c.Glare }},
	{"blur", msgBlur, func(c protocol.Checks) protocol.CheckResult { return c.Blur }},
	{"brightness", msgBrightness, func(c protocol.Checks) protocol.CheckResult { return c.Brightness }},
	{"contrast", msgContrast, func(c protocol.Checks) protocol.CheckResult { return c.Contrast }},
}

// onMessage dispatches one inbound backend message. Runs on the transport
// read goroutine; all state mutation goes through the pipeline mutex.
func (p *Pipeline) onMessage(data []byte) {
	env, err := protocol.Parse(data)
	if err != nil {
		log.Warn("unparseable backend message", "err", err)
		return
	}

	switch env.Kind() {
	case protocol.KindMetadata:
		p.handleMetadata(env)
	case protocol.KindCaptured:
		p.handleCaptured(env)
	case protocol.KindComplete:
		p.handleComplete(env)
	default:
		// Forward-compatible contract: unknown shapes are ignored.
		log.Debug("ignoring unrecognized backend message",
			"type", env.Type, "status", env.Status)
	}
}

// handleMetadata merges the check snapshot, acknowledges the batch and
// derives the single human-facing feedback line.
func (p *Pipeline) handleMetadata(env *protocol.Envelope) {
	p.acknowledge()

	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	if env.QualityMetrics != nil {
		p.lastChecks = *env.QualityMetrics
	}
	if env.BoundingBox != nil {
		p.lastBox = env.BoundingBox
	}
	fb := p.snapshotLocked()
	p.mu.Unlock()

	fb.Spoof = env.SpoofLabel
	fb.Message, fb.Category = deriveMessage(fb.Checks, env.SpoofLabel)
	p.emitDebounced(fb)
}

// handleCaptured acknowledges the batch and emits updated progress.
func (p *Pipeline) handleCaptured(env *protocol.Envelope) {
	p.acknowledge()

	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	fb := p.snapshotLocked()
	p.mu.Unlock()

	fb.Message = msgGoodPosition
	fb.Category = CategorySuccess
	fb.FramesCaptured = env.FramesCaptured
	fb.FramesNeeded = env.TotalFramesNeeded
	fb.Progress = env.Progress()
	p.emitDebounced(fb)
}

// handleComplete extracts the backend-selected best image, persists it
// and emits the capture event. A missing payload is a backend contract
// violation: logged, non-fatal, no event.
func (p *Pipeline) handleComplete(env *protocol.Envelope) {
	p.acknowledge()

	data, ext, err := protocol.DecodeBestImage(env.BestImage)
	if err != nil {
		log.Warn("completion message without usable best image",
			"err", err, "spoof", env.CompletionSpoof())
		return
	}

	path, err := p.writeBestImage(data, ext)
	if err != nil {
		log.Error("persist best image failed", "err", err)
		return
	}

	log.Info("capture complete",
		"path", path, "bytes", len(data), "spoof", env.CompletionSpoof())
	p.emitCapture(CapturedImage{Path: path, IsAutomatic: true})
}

func (p *Pipeline) writeBestImage(data []byte, ext string) (string, error) {
	f, err := os.CreateTemp(p.outputDir, "docscan-best-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return filepath.Clean(f.Name()), nil
}

// deriveMessage picks one message and severity from a check snapshot.
// Priority: spoof verdict, then the first failing or warning metric in
// fixed order, then the all-clear line.
func deriveMessage(checks protocol.Checks, spoof protocol.SpoofLabel) (string, Category) {
	switch spoof {
	case protocol.SpoofScreen:
		return msgSpoofScreen, CategoryError
	case protocol.SpoofPrint:
		return msgSpoofPrint, CategoryError
	}

	for _, m := range metricPriority {
		switch m.result(checks) {
		case protocol.CheckFail, protocol.CheckWarn:
			return m.message, CategoryWarning
		}
	}
	return msgGoodPosition, CategorySuccess
}
