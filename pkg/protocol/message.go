// Package protocol defines the websocket message types exchanged with the
// detection backend. Outbound traffic is raw JPEG bytes with no envelope;
// inbound traffic is JSON with a type discriminant. Unknown shapes parse
// into a generic envelope so the contract stays forward-compatible.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageKind identifies an inbound backend message shape.
type MessageKind string

const (
	// KindMetadata carries per-metric quality checks and an optional
	// spoof label. Receipt acknowledges the current frame batch.
	KindMetadata MessageKind = "metadata"

	// KindCaptured carries capture progress counts.
	KindCaptured MessageKind = "captured"

	// KindComplete carries the final spoof classification and the
	// backend-selected best image.
	KindComplete MessageKind = "complete"

	// KindUnknown is any shape this client does not recognize.
	KindUnknown MessageKind = "unknown"
)

// CheckResult is the backend's verdict for one quality metric.
type CheckResult string

const (
	CheckPass CheckResult = "pass"
	CheckWarn CheckResult = "warn"
	CheckFail CheckResult = "fail"
	CheckNone CheckResult = ""
)

// SpoofLabel is the backend's presentation-attack classification.
type SpoofLabel string

const (
	SpoofReal   SpoofLabel = "real"
	SpoofScreen SpoofLabel = "screen"
	SpoofPrint  SpoofLabel = "print"
	SpoofNone   SpoofLabel = ""
)

// Checks is the per-metric snapshot carried by a metadata message.
// Immutable once parsed.
type Checks struct {
	Brightness CheckResult `json:"brightness,omitempty"`
	Contrast   CheckResult `json:"contrast,omitempty"`
	Blur       CheckResult `json:"blur,omitempty"`
	Glare      CheckResult `json:"glare,omitempty"`
}

// BoundingBox locates the detected document within the frame, in frame
// pixel coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Spoof is the nested spoof object on completion messages.
type Spoof struct {
	Label SpoofLabel `json:"label"`
}

// Envelope is the parsed form of any inbound backend message. Fields not
// present for a given kind are zero.
type Envelope struct {
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`

	// metadata fields
	QualityMetrics *Checks      `json:"quality_metrics,omitempty"`
	SpoofLabel     SpoofLabel   `json:"spoof_label,omitempty"`
	BoundingBox    *BoundingBox `json:"bounding_box,omitempty"`

	// status=captured fields
	FramesCaptured    int `json:"frames_captured,omitempty"`
	TotalFramesNeeded int `json:"total_frames_needed,omitempty"`

	// status=complete fields
	Spoof     *Spoof `json:"spoof,omitempty"`
	BestImage string `json:"best_image,omitempty"`
}

// Parse decodes one inbound message.
func Parse(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("protocol: parse message: %w", err)
	}
	return &env, nil
}

// Kind classifies the envelope by its discriminant fields.
func (e *Envelope) Kind() MessageKind {
	switch e.Type {
	case "metadata":
		return KindMetadata
	case "status":
		switch e.Status {
		case "captured":
			return KindCaptured
		case "complete":
			return KindComplete
		}
	}
	return KindUnknown
}

// Progress returns the capture progress ratio clamped to [0, 1].
func (e *Envelope) Progress() float64 {
	if e.TotalFramesNeeded <= 0 {
		return 0
	}
	ratio := float64(e.FramesCaptured) / float64(e.TotalFramesNeeded)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// CompletionSpoof returns the spoof label from a completion message,
// SpoofNone when absent.
func (e *Envelope) CompletionSpoof() SpoofLabel {
	if e.Spoof == nil {
		return SpoofNone
	}
	return e.Spoof.Label
}
