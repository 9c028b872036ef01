package ws

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/czx-lab/aquinas/network"
	"github.com/gorilla/websocket"
)

var (
	defaultHandshakeTimeout = 10 * time.Second
	defaultMaxMsgSize       = int64(64_000_000 + 8)
	closeGracePeriod        = time.Second
)

type (
	StreamConf struct {
		HandshakeTimeout time.Duration
		// Largest single websocket message accepted from the peer
		MaxMsgSize int64
		Header     http.Header
	}

	// Stream presents the binary messages of a websocket connection as one byte stream.
	// Frame boundaries and message boundaries are unrelated.
	Stream struct {
		conn *websocket.Conn
		// current inbound message, owned by the reader
		reader io.Reader
		wmu    sync.Mutex
	}
)

var _ network.Stream = (*Stream)(nil)

// Dial opens a websocket connection to url.
func Dial(ctx context.Context, url string, conf StreamConf) (*Stream, error) {
	defaultStreamConf(&conf)

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: conf.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, conf.Header)
	if err != nil {
		return nil, err
	}

	conn.SetReadLimit(conf.MaxMsgSize)
	return NewStream(conn), nil
}

func NewStream(conn *websocket.Conn) *Stream {
	return &Stream{conn: conn}
}

// Read implements io.Reader across message boundaries.
func (s *Stream) Read(p []byte) (int, error) {
	for {
		if s.reader == nil {
			_, r, err := s.conn.NextReader()
			if err != nil {
				return 0, translate(err)
			}
			s.reader = r
		}

		n, err := s.reader.Read(p)
		if errors.Is(err, io.EOF) {
			s.reader = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, translate(err)
	}
}

// Write sends p as one binary message.
func (s *Stream) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, translate(err)
	}
	return len(p), nil
}

// Close sends a close message and closes the underlying connection.
func (s *Stream) Close() error {
	s.wmu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	s.wmu.Unlock()

	return s.conn.Close()
}

func (s *Stream) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *Stream) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// translate maps a normal websocket close to io.EOF.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return io.EOF
	}
	return err
}

func defaultStreamConf(conf *StreamConf) {
	if conf.HandshakeTimeout <= 0 {
		conf.HandshakeTimeout = defaultHandshakeTimeout
	}
	if conf.MaxMsgSize <= 0 {
		conf.MaxMsgSize = defaultMaxMsgSize
	}
}
