package tcp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/czx-lab/aquinas/container/dataqueue"
	"github.com/czx-lab/aquinas/network"
	"github.com/czx-lab/aquinas/wire"
	"github.com/czx-lab/aquinas/xlog"
	"go.uber.org/zap"
)

const (
	// SafePacketSize is the largest payload a peer may announce.
	SafePacketSize = 64_000_000

	defaultReceiveBufferSize = 64 * 1024
	defaultSendBufferSize    = 4096
)

type (
	// Hooks observe the lifecycle of a connection. Any of them may be nil.
	Hooks struct {
		// OnConnected runs on the reader goroutine before the first read.
		OnConnected func(c *Conn)
		// OnClose runs once when the connection closes for any reason.
		OnClose func(c *Conn)
		// OnAbnormal receives errors other than an ordinary disconnect.
		OnAbnormal func(c *Conn, err error)
	}

	ConnConf struct {
		// Size of a single socket read
		ReceiveBufferSize int
		// Payloads above this size close the connection
		MaxPacketSize uint32
		Metrics       network.ClientMetrics
		Hooks         Hooks
	}

	// Conn runs the framing protocol over a stream: one reader goroutine
	// reassembles frames and dispatches them, senders serialize through Transfer.
	Conn struct {
		// guards out and stream writes
		sync.Mutex
		conf     *ConnConf
		stream   network.Stream
		registry *network.Registry
		out      *wire.ByteBuffer
		queue    *dataqueue.DataQueue

		// read state, owned by the reader goroutine
		readingHeader bool
		channel       network.ChannelID
		size          uint32
		entry         *network.Entry

		authenticated atomic.Bool
		closed        atomic.Bool
		closeOnce     sync.Once
	}
)

var _ network.Session = (*Conn)(nil)

func NewConn(stream network.Stream, registry *network.Registry, conf *ConnConf) *Conn {
	if conf == nil {
		conf = &ConnConf{}
	}
	defaultConnConf(conf)

	return &Conn{
		conf:          conf,
		stream:        stream,
		registry:      registry,
		out:           wire.NewByteBuffer(defaultSendBufferSize),
		queue:         dataqueue.New(conf.ReceiveBufferSize),
		readingHeader: true,
	}
}

// Run reads and dispatches frames until the stream ends or a frame is rejected.
// An ordinary disconnect returns nil. The connection is closed when Run returns.
func (c *Conn) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("connection: panic: %v", r)
		}
		if err != nil {
			c.abnormal(err)
		}
		c.Close()
	}()

	if fn := c.conf.Hooks.OnConnected; fn != nil {
		fn(c)
	}

	buf := make([]byte, c.conf.ReceiveBufferSize)
	for {
		n, rerr := c.stream.Read(buf)
		if n > 0 {
			c.conf.Metrics.AddReceivedBytes(n)
			c.queue.Append(buf[:n])
			if err := c.drain(); err != nil {
				return err
			}
		}
		if rerr != nil {
			if c.closed.Load() || IsDisconnect(rerr) {
				return nil
			}
			c.conf.Metrics.IncReadErrors()
			return rerr
		}
	}
}

// drain dispatches every complete frame in the queue.
func (c *Conn) drain() error {
	for {
		if c.readingHeader {
			if c.queue.Len() < dataqueue.HeaderSize {
				return nil
			}

			channel, size := c.queue.GetHeader()
			c.channel = network.ChannelID(channel)
			if size > c.conf.MaxPacketSize {
				return &network.ProtocolError{
					Channel: c.channel,
					Reason:  fmt.Sprintf("announced %d bytes", size),
					Err:     network.ErrPacketTooLarge,
				}
			}

			entry, err := c.registry.Accept(c, c.channel)
			if err != nil {
				return err
			}
			c.entry, c.size = entry, size
			c.readingHeader = false
		}

		if c.queue.Len() < int(c.size) {
			return nil
		}

		var payload []byte
		if c.size > 0 {
			payload = make([]byte, c.size)
			c.queue.PopData(payload)
		}
		c.readingHeader = true

		if err := c.entry.Handle(c, payload); err != nil {
			return err
		}
		c.conf.Metrics.IncFrames(c.channel, int(c.size))
		if c.closed.Load() {
			return nil
		}
	}
}

func (c *Conn) abnormal(err error) {
	c.conf.Metrics.IncProtocolErrors(network.ErrorCause(err))

	var pe *network.ProtocolError
	if errors.As(err, &pe) {
		xlog.Log(xlog.ClientFatal, "connection: rejected frame",
			zap.Uint32("channel", uint32(pe.Channel)), zap.Error(err))
	} else {
		xlog.Log(xlog.ClientFatal, "connection: read loop failed", zap.Error(err))
	}

	if fn := c.conf.Hooks.OnAbnormal; fn != nil {
		fn(c, err)
	}
}

// Transfer lets fill write frames into the cleared outbound buffer and sends them.
// Concurrent calls are serialized.
func (c *Conn) Transfer(fill func(b *wire.ByteBuffer) error) error {
	c.Lock()
	defer c.Unlock()

	if c.closed.Load() {
		return network.ErrConnClosed
	}

	c.out.Clear()
	if err := fill(c.out); err != nil {
		return err
	}
	n, err := c.stream.Write(c.out.Bytes())
	c.out.Clear()
	c.conf.Metrics.AddSentBytes(n)
	if err != nil {
		c.conf.Metrics.IncWriteErrors()
		// The reader sees the closed stream and runs Close with its hooks. Callers may hold locks OnClose needs.
		c.shutdown()
		return err
	}
	return nil
}

// Authenticate implements network.Session.
func (c *Conn) Authenticate() {
	c.authenticated.Store(true)
}

// Authenticated implements network.Session.
func (c *Conn) Authenticated() bool {
	return c.authenticated.Load()
}

// Close implements network.Session. It is safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.shutdown()

		if fn := c.conf.Hooks.OnClose; fn != nil {
			fn(c)
		}
	})
}

func (c *Conn) shutdown() {
	if c.closed.CompareAndSwap(false, true) {
		c.stream.Close()
	}
}

// Closed reports whether the connection stopped accepting writes.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

func (c *Conn) LocalAddr() net.Addr {
	return c.stream.LocalAddr()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.stream.RemoteAddr()
}

// IsDisconnect reports whether err is an ordinary end of the stream rather than a failure.
func IsDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE)
}

func defaultConnConf(conf *ConnConf) {
	if conf.ReceiveBufferSize <= 0 {
		conf.ReceiveBufferSize = defaultReceiveBufferSize
	}
	if conf.MaxPacketSize == 0 || conf.MaxPacketSize > SafePacketSize {
		conf.MaxPacketSize = SafePacketSize
	}
	if conf.Metrics == nil {
		conf.Metrics = &network.NoopClientMetrics{}
	}
}
