package protocol

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestParse_MetadataMessage(t *testing.T) {
	raw := []byte(`{
		"type": "metadata",
		"quality_metrics": {"brightness":"pass","contrast":"warn","blur":"pass","glare":"fail"},
		"spoof_label": "screen",
		"bounding_box": {"x":10,"y":20,"width":300,"height":180}
	}`)

	env, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.Kind() != KindMetadata {
		t.Fatalf("kind: got %s", env.Kind())
	}
	if env.QualityMetrics == nil {
		t.Fatal("quality metrics missing")
	}
	if env.QualityMetrics.Glare != CheckFail {
		t.Errorf("glare: got %q", env.QualityMetrics.Glare)
	}
	if env.QualityMetrics.Contrast != CheckWarn {
		t.Errorf("contrast: got %q", env.QualityMetrics.Contrast)
	}
	if env.SpoofLabel != SpoofScreen {
		t.Errorf("spoof: got %q", env.SpoofLabel)
	}
	if env.BoundingBox == nil || env.BoundingBox.Width != 300 {
		t.Errorf("bounding box: got %+v", env.BoundingBox)
	}
}

func TestParse_CapturedMessage(t *testing.T) {
	env, err := Parse([]byte(`{"type":"status","status":"captured","total_frames_needed":3,"frames_captured":2}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.Kind() != KindCaptured {
		t.Fatalf("kind: got %s", env.Kind())
	}
	if got := env.Progress(); got < 0.666 || got > 0.667 {
		t.Errorf("progress: got %v, want ~0.667", got)
	}
}

func TestProgress_Clamped(t *testing.T) {
	over := &Envelope{FramesCaptured: 5, TotalFramesNeeded: 3}
	if got := over.Progress(); got != 1 {
		t.Errorf("overshoot should clamp to 1, got %v", got)
	}
	zero := &Envelope{FramesCaptured: 2, TotalFramesNeeded: 0}
	if got := zero.Progress(); got != 0 {
		t.Errorf("zero denominator should yield 0, got %v", got)
	}
	neg := &Envelope{FramesCaptured: -1, TotalFramesNeeded: 3}
	if got := neg.Progress(); got != 0 {
		t.Errorf("negative count should clamp to 0, got %v", got)
	}
}

func TestParse_CompleteMessage(t *testing.T) {
	env, err := Parse([]byte(`{"type":"status","status":"complete","spoof":{"label":"print"},"best_image":"aGk="}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.Kind() != KindComplete {
		t.Fatalf("kind: got %s", env.Kind())
	}
	if env.CompletionSpoof() != SpoofPrint {
		t.Errorf("spoof: got %q", env.CompletionSpoof())
	}
}

func TestKind_UnrecognizedShapes(t *testing.T) {
	cases := []string{
		`{"type":"telemetry","payload":42}`,
		`{"type":"status","status":"paused"}`,
		`{}`,
	}
	for _, raw := range cases {
		env, err := Parse([]byte(raw))
		if err != nil {
			t.Fatalf("parse %s: %v", raw, err)
		}
		if env.Kind() != KindUnknown {
			t.Errorf("%s: got kind %s, want unknown", raw, env.Kind())
		}
	}
}

func TestParse_RejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{"type":`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDecodeBestImage_DataURLAndRawAgree(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}
	b64 := base64.StdEncoding.EncodeToString(payload)

	raw, ext1, err := DecodeBestImage(b64)
	if err != nil {
		t.Fatalf("raw base64: %v", err)
	}
	prefixed, ext2, err := DecodeBestImage("data:image/jpeg;base64," + b64)
	if err != nil {
		t.Fatalf("data URL: %v", err)
	}

	if !bytes.Equal(raw, prefixed) {
		t.Error("data URL and raw base64 should decode to the same bytes")
	}
	if !bytes.Equal(raw, payload) {
		t.Error("decoded bytes differ from original")
	}
	if ext1 != ".jpg" || ext2 != ".jpg" {
		t.Errorf("extensions: got %q and %q, want .jpg", ext1, ext2)
	}
}

func TestDecodeBestImage_SniffsPNG(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	// Deliberately lying media type: the magic bytes win.
	in := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload)

	_, ext, err := DecodeBestImage(in)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ext != ".png" {
		t.Errorf("extension: got %q, want .png", ext)
	}
}

func TestDecodeBestImage_UnpaddedBase64(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	unpadded := base64.RawStdEncoding.EncodeToString(payload)

	got, _, err := DecodeBestImage(unpadded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("unpadded base64 should decode")
	}
}

func TestDecodeBestImage_EmptyPayload(t *testing.T) {
	if _, _, err := DecodeBestImage(""); err == nil {
		t.Fatal("expected ErrNoImage")
	}
}
