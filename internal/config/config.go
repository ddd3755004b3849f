// Package config provides configuration helpers for go-docscan commands.
package config

import (
	"fmt"
	"os"
)

// Default detection backend endpoints per environment.
const (
	DefaultDevEndpoint     = "ws://localhost:8765/v1/detect"
	DefaultStagingEndpoint = "wss://detect.staging.veriscan.io/v1/detect"
	DefaultProdEndpoint    = "wss://detect.veriscan.io/v1/detect"
)

// Environment returns the target environment from DOCSCAN_ENV.
// Falls back to "dev" if not set.
func Environment() string {
	if env := os.Getenv("DOCSCAN_ENV"); env != "" {
		return env
	}
	return "dev"
}

// Endpoint returns the detection backend websocket URL.
// DOCSCAN_ENDPOINT overrides the per-environment default.
func Endpoint() string {
	if ep := os.Getenv("DOCSCAN_ENDPOINT"); ep != "" {
		return ep
	}
	switch Environment() {
	case "prod", "production":
		return DefaultProdEndpoint
	case "staging":
		return DefaultStagingEndpoint
	default:
		return DefaultDevEndpoint
	}
}

// Token returns the bearer token from DOCSCAN_TOKEN.
// The token is passed through to the backend as-is; this module
// performs no session management of its own.
func Token() string {
	return os.Getenv("DOCSCAN_TOKEN")
}

// TokenRequired returns the bearer token from DOCSCAN_TOKEN.
// Exits if not set.
func TokenRequired() string {
	token := os.Getenv("DOCSCAN_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "Error: DOCSCAN_TOKEN environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: DOCSCAN_TOKEN=<token> go run ./cmd/docscan")
		os.Exit(1)
	}
	return token
}
