package network

import (
	"errors"
	"time"

	"github.com/czx-lab/aquinas/wire"
)

// ClientMetrics defines the interface for connection metrics tracking.
type ClientMetrics interface {
	// Connection metrics
	// Increment the count of established connections
	IncConnects()
	// Increment the count of failed dial attempts
	IncFailedConnects()
	// Observe how long a connection stayed open
	ObserveConnDuration(duration time.Duration)

	// Data transfer metrics
	AddSentBytes(bytes int)
	AddReceivedBytes(bytes int)
	// Count a dispatched frame and its payload size
	IncFrames(channel ChannelID, size int)

	// Error metrics
	// Increment the count of protocol errors by cause
	IncProtocolErrors(reason string)
	IncReadErrors()
	IncWriteErrors()

	// Shutdown the metrics tracking system
	Close() error
}

type NoopClientMetrics struct{}

// AddReceivedBytes implements ClientMetrics.
func (n *NoopClientMetrics) AddReceivedBytes(bytes int) {}

// AddSentBytes implements ClientMetrics.
func (n *NoopClientMetrics) AddSentBytes(bytes int) {}

// Close implements ClientMetrics.
func (n *NoopClientMetrics) Close() error { return nil }

// IncConnects implements ClientMetrics.
func (n *NoopClientMetrics) IncConnects() {}

// IncFailedConnects implements ClientMetrics.
func (n *NoopClientMetrics) IncFailedConnects() {}

// IncFrames implements ClientMetrics.
func (n *NoopClientMetrics) IncFrames(channel ChannelID, size int) {}

// IncProtocolErrors implements ClientMetrics.
func (n *NoopClientMetrics) IncProtocolErrors(reason string) {}

// IncReadErrors implements ClientMetrics.
func (n *NoopClientMetrics) IncReadErrors() {}

// IncWriteErrors implements ClientMetrics.
func (n *NoopClientMetrics) IncWriteErrors() {}

// ObserveConnDuration implements ClientMetrics.
func (n *NoopClientMetrics) ObserveConnDuration(duration time.Duration) {}

var _ ClientMetrics = (*NoopClientMetrics)(nil)

// ErrorCause returns a short label for err suitable for a metrics dimension.
func ErrorCause(err error) string {
	switch {
	case errors.Is(err, ErrUnknownChannel):
		return "unknown_channel"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrPacketTooLarge):
		return "too_large"
	case errors.Is(err, ErrUnexpectedSignal), errors.Is(err, ErrUnexpectedPayload):
		return "shape"
	case errors.Is(err, wire.ErrUnderrun), errors.Is(err, wire.ErrTrailingBytes):
		return "decode"
	}
	return "other"
}
