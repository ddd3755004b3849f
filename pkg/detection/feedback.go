// Package detection orchestrates the continuous capture pipeline: it
// consumes the latest camera frame on a timer, encodes and streams it to
// the detection backend, interprets the backend's quality and spoof
// feedback, and emits user-facing events plus the final captured image.
package detection

import "github.com/veriscan/go-docscan/pkg/protocol"

// Category is the severity of a feedback event.
type Category string

const (
	CategoryInfo    Category = "info"
	CategorySuccess Category = "success"
	CategoryWarning Category = "warning"
	CategoryError   Category = "error"
)

// Feedback is the aggregate emitted to the UI boundary. It is recreated
// on every inbound event and never mutated after construction.
type Feedback struct {
	// Message is the human-facing guidance line.
	Message string

	// Category is the severity of the message.
	Category Category

	// Checks is the last-known per-metric snapshot.
	Checks protocol.Checks

	// Spoof is the current spoof classification, SpoofNone when the
	// backend reported nothing.
	Spoof protocol.SpoofLabel

	// BoundingBox is the last-known document location, nil when the
	// backend has not reported one yet.
	BoundingBox *protocol.BoundingBox

	// Connecting and Connected reflect the transport state at emission
	// time.
	Connecting bool
	Connected  bool

	// Capture progress: frames the backend has accepted so far, frames
	// it needs, and the clamped ratio in [0, 1].
	FramesCaptured int
	FramesNeeded   int
	Progress       float64
}

// CapturedImage is the terminal artifact of a capture session. Ownership
// transfers to the receiver; the pipeline holds no reference afterwards.
type CapturedImage struct {
	// Path is the file the image was written to.
	Path string

	// IsAutomatic is true when the backend selected the image at
	// session completion, false for a one-shot manual capture.
	IsAutomatic bool
}

// Human-facing messages keyed by the condition that produced them.
const (
	msgGoodPosition = "Good position, hold still"
	msgGlare        = "Tilt the document to reduce glare"
	msgBlur         = "Hold the device steady"
	msgBrightness   = "Move to better lighting"
	msgContrast     = "Place the document on a contrasting surface"
	msgSpoofScreen  = "Use the physical document, not a screen"
	msgSpoofPrint   = "Use the original document, not a copy"
	msgConnecting   = "Connecting to verification service"
	msgConnected    = "Connected, position the document"
	msgDisconnected = "Connection lost, retrying"
)
