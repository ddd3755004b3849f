// Command docscan runs the document-capture pipeline against a detection
// backend from a desktop webcam (or a synthetic feed), printing feedback
// events and captured image paths. Development harness for the pipeline;
// on device the host app embeds the packages directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veriscan/go-docscan/internal/config"
	"github.com/veriscan/go-docscan/internal/log"
	"github.com/veriscan/go-docscan/pkg/camera"
	"github.com/veriscan/go-docscan/pkg/capture"
	"github.com/veriscan/go-docscan/pkg/detection"
	"github.com/veriscan/go-docscan/pkg/transport"
)

func main() {
	var (
		useMock = flag.Bool("mock", false, "use a synthetic camera feed instead of a webcam")
		device  = flag.Int("device", 0, "webcam device index")
		outDir  = flag.String("out", "", "directory for captured images (default: temp dir)")
		oneshot = flag.Bool("oneshot", false, "perform a single manual capture and exit")
	)
	flag.Parse()

	log.Init(os.Getenv("LOG_LEVEL"))

	source, cleanup, err := openSource(*useMock, *device)
	if err != nil {
		log.Error("open camera", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if *oneshot {
		runOneshot(ctx, source, *outDir)
		return
	}

	endpoint := config.Endpoint()
	channel := transport.NewWSChannel(endpoint, config.Token())
	pipeline := detection.NewPipeline(detection.Config{
		Channel:   channel,
		Source:    source,
		OutputDir: *outDir,
	})

	log.Info("starting capture pipeline", "endpoint", endpoint, "env", config.Environment())
	if err := pipeline.Start(ctx); err != nil {
		log.Error("start pipeline", "err", err)
		os.Exit(1)
	}
	defer pipeline.Dispose()

	for {
		select {
		case <-ctx.Done():
			return
		case fb, ok := <-pipeline.Feedback():
			if !ok {
				return
			}
			fmt.Printf("[%s] %s (progress %.0f%%, connected=%v)\n",
				fb.Category, fb.Message, fb.Progress*100, fb.Connected)
		case img, ok := <-pipeline.Captures():
			if !ok {
				return
			}
			fmt.Printf("captured: %s (automatic=%v)\n", img.Path, img.IsAutomatic)
			return
		}
	}
}

// runOneshot exercises the capture finalizer with a representative
// phone-shaped geometry.
func runOneshot(ctx context.Context, source camera.Source, outDir string) {
	pw, ph := source.PreviewSize()
	if pw == 0 || ph == 0 {
		pw, ph = 480, 640
	}

	finalizer := capture.NewFinalizer(source, outDir)
	geo := capture.Geometry{
		Preview: capture.Size{Width: float64(pw), Height: float64(ph)},
		Screen:  capture.Size{Width: 360, Height: 800},
		Target:  capture.Rect{X: 30, Y: 200, Width: 300, Height: 190},
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	img, err := finalizer.CaptureOnce(ctx, geo)
	if err != nil {
		os.Exit(1)
	}
	fmt.Printf("captured: %s (automatic=%v)\n", img.Path, img.IsAutomatic)
}

func openSource(useMock bool, device int) (camera.Source, func(), error) {
	if useMock {
		return &camera.MockSource{}, func() {}, nil
	}
	src := camera.NewGoCVSource(device)
	if err := src.Open(); err != nil {
		return nil, nil, err
	}
	return src, src.Close, nil
}
