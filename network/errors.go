package network

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownChannel    = errors.New("unknown channel")
	ErrUnauthenticated   = errors.New("channel requires authentication")
	ErrPacketTooLarge    = errors.New("packet exceeds safe size")
	ErrUnexpectedSignal  = errors.New("signal received on payload channel")
	ErrUnexpectedPayload = errors.New("payload received on signal channel")
	// ErrConnClosed is returned when sending on a closed connection.
	ErrConnClosed = errors.New("connection closed")
)

// ProtocolError reports a frame that cannot be trusted. It is fatal to the connection only.
type ProtocolError struct {
	Channel ChannelID
	// Reason names the processing step that failed
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("network: channel %d: %v", e.Channel, e.Err)
	}
	return fmt.Sprintf("network: channel %d: %s: %v", e.Channel, e.Reason, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func protocolError(channel ChannelID, reason string, err error) error {
	return &ProtocolError{Channel: channel, Reason: reason, Err: err}
}
