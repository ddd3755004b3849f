package protocol

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrNoImage is returned when a completion message carries no best-image
// payload. The backend contract requires one; callers log and move on.
var ErrNoImage = errors.New("protocol: completion message has no best image")

// Image format signatures. The data-URL media type is not trusted; the
// decoded bytes decide the extension.
var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
	jpegMagic = []byte{0xFF, 0xD8}
)

// DecodeBestImage decodes the best-image payload of a completion message.
// The value is base64, optionally prefixed with a data URL header
// ("data:image/png;base64,..."). Returns the raw bytes and the file
// extension matching the sniffed format.
func DecodeBestImage(payload string) (data []byte, ext string, err error) {
	if payload == "" {
		return nil, "", ErrNoImage
	}

	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, "base64,")
		if idx < 0 {
			return nil, "", fmt.Errorf("protocol: data URL without base64 marker")
		}
		payload = payload[idx+len("base64,"):]
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some encoders omit padding.
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("protocol: decode best image: %w", err)
		}
	}

	return data, SniffExtension(data), nil
}

// SniffExtension picks a file extension from image magic bytes.
// JPEG is the backend default, so unknown data falls back to .jpg.
func SniffExtension(data []byte) string {
	if bytes.HasPrefix(data, pngMagic) {
		return ".png"
	}
	if bytes.HasPrefix(data, jpegMagic) {
		return ".jpg"
	}
	return ".jpg"
}
