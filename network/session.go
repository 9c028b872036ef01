package network

import (
	"io"
	"net"

	"github.com/czx-lab/aquinas/wire"
)

type (
	// Stream is the byte transport a connection reads frames from.
	Stream interface {
		io.ReadWriteCloser
		LocalAddr() net.Addr
		RemoteAddr() net.Addr
	}

	// Sender serializes outbound frames. fill receives the connection's cleared
	// outbound buffer and must leave complete frames in it.
	Sender interface {
		Transfer(fill func(b *wire.ByteBuffer) error) error
	}

	// Session is the connection as seen by channel handlers.
	Session interface {
		Sender
		// Authenticate marks the connection as authenticated.
		Authenticate()
		Authenticated() bool
		Close()
	}
)
