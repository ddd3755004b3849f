// Package transport provides the persistent bidirectional byte-stream
// connection to the detection backend. The channel exposes connection
// status, inbound messages and errors through registered callbacks;
// sending is fire-and-forget, message framing belongs to the protocol.
package transport

import (
	"context"
	"errors"
)

// Common errors returned by channels.
var (
	ErrNotConnected = errors.New("transport: channel not connected")
	ErrDisposed     = errors.New("transport: channel disposed")
)

// Status is the channel connection state. No state is terminal except
// after Dispose; spontaneous transitions may happen at any time.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Channel is a persistent byte-stream connection to the backend.
type Channel interface {
	// Connect establishes the connection and starts delivering inbound
	// messages. Status callbacks fire for connecting/connected/error.
	Connect(ctx context.Context) error

	// Send transmits one outbound message. Fire-and-forget: a nil
	// return means the bytes were handed to the connection, not that
	// the backend received them.
	Send(data []byte) error

	// Status returns the current connection state.
	Status() Status

	// Disconnect closes the connection. The channel may be connected
	// again afterwards.
	Disconnect()

	// Dispose permanently shuts the channel down. Idempotent; no
	// callbacks fire after the first call.
	Dispose()

	// OnStatus registers the connection-state callback.
	OnStatus(fn func(Status))

	// OnMessage registers the inbound-message callback.
	OnMessage(fn func(data []byte))

	// OnError registers the inbound-error callback.
	OnError(fn func(err error))
}
