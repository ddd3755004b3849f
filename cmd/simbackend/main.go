// Command simbackend is a local stand-in for the detection backend during
// development. It accepts frame streams on a websocket endpoint and
// replays metadata, progress and completion messages so the client
// pipeline can be exercised end to end without the real service. It runs
// no detection model.
package main

import (
	"bytes"
	"encoding/base64"
	"flag"
	"image"
	"image/jpeg"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/veriscan/go-docscan/internal/log"
	"github.com/veriscan/go-docscan/pkg/detection"
	"github.com/veriscan/go-docscan/pkg/protocol"
)

// framesNeeded is how many accepted frames complete a simulated session.
const framesNeeded = 9

func main() {
	addr := flag.String("addr", ":8765", "listen address")
	flag.Parse()

	log.Init(os.Getenv("LOG_LEVEL"))

	app := fiber.New(fiber.Config{
		AppName:               "docscan simbackend",
		DisableStartupMessage: true,
	})

	app.Use("/v1/detect", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/v1/detect", websocket.New(handleSession))

	log.Info("simbackend listening", "addr", *addr)
	if err := app.Listen(*addr); err != nil {
		log.Error("listen failed", "err", err)
		os.Exit(1)
	}
}

// handleSession consumes one client stream: every batch of frames is
// acknowledged with metadata, progress follows, and the session completes
// once enough frames arrived.
func handleSession(c *websocket.Conn) {
	session := c.Headers("X-Session-Id")
	log.Info("client connected", "session", session)
	defer log.Info("client gone", "session", session)

	frames := 0
	captured := 0
	best := bestImagePayload()

	for {
		msgType, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		frames++
		log.Debug("frame received", "session", session, "bytes", len(data), "count", frames)

		// Ack each completed batch so client back-pressure clears.
		if frames%detection.BatchSize != 0 {
			continue
		}

		captured++
		if captured*detection.BatchSize >= framesNeeded {
			if err := c.WriteJSON(completeMessage(best)); err != nil {
				return
			}
			return
		}

		if err := c.WriteJSON(metadataMessage(frames)); err != nil {
			return
		}
		if err := c.WriteJSON(capturedMessage(captured)); err != nil {
			return
		}
	}
}

// metadataMessage cycles through check verdicts so the client sees both
// warnings and the all-clear.
func metadataMessage(frames int) protocol.Envelope {
	checks := protocol.Checks{
		Brightness: protocol.CheckPass,
		Contrast:   protocol.CheckPass,
		Blur:       protocol.CheckPass,
		Glare:      protocol.CheckPass,
	}
	if frames%2 == 0 {
		checks.Glare = protocol.CheckWarn
	}
	return protocol.Envelope{
		Type:           "metadata",
		QualityMetrics: &checks,
		SpoofLabel:     protocol.SpoofReal,
		BoundingBox:    &protocol.BoundingBox{X: 40, Y: 80, Width: 400, Height: 260},
	}
}

func capturedMessage(captured int) protocol.Envelope {
	return protocol.Envelope{
		Type:              "status",
		Status:            "captured",
		FramesCaptured:    captured * detection.BatchSize,
		TotalFramesNeeded: framesNeeded,
	}
}

func completeMessage(best string) protocol.Envelope {
	return protocol.Envelope{
		Type:      "status",
		Status:    "complete",
		Spoof:     &protocol.Spoof{Label: protocol.SpoofReal},
		BestImage: best,
	}
}

// bestImagePayload builds a small JPEG and wraps it the way the real
// backend does, data-URL prefix included.
func bestImagePayload() string {
	img := image.NewGray(image.Rect(0, 0, 64, 40))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80})
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
