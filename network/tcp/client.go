package tcp

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/czx-lab/aquinas/network"
	"github.com/czx-lab/aquinas/network/ws"
	"github.com/czx-lab/aquinas/xlog"
	"go.uber.org/zap"
)

var (
	//	default values for the client configuration
	defaultReconnectInterval = 2 * time.Second
	defaultDialTimeout       = 10 * time.Second
)

type (
	ClientConf struct {
		ConnConf
		// Server address: host:port, tcp://host:port or ws://host:port/path
		Url string
		// Pause between a disconnect or failed dial and the next attempt
		ReconnectInterval time.Duration
		DialTimeout       time.Duration
		// Reconnect after the connection closes
		AutoReconnect bool
	}

	// Dialer opens a stream to addr.
	Dialer func(ctx context.Context, addr string, timeout time.Duration) (network.Stream, error)

	// Client keeps one framing connection to the server alive.
	Client struct {
		sync.Mutex
		wg       sync.WaitGroup
		conf     *ClientConf
		registry *network.Registry
		dialer   Dialer
		ctx      context.Context
		cancel   context.CancelFunc
		conn     *Conn
	}
)

func NewClient(conf *ClientConf, registry *network.Registry) *Client {
	defaultClientConf(conf)

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conf:     conf,
		registry: registry,
		dialer:   Dial,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// WithDialer replaces the dialer, which otherwise picks tcp or websocket from the url scheme.
func (c *Client) WithDialer(d Dialer) *Client {
	c.Lock()
	defer c.Unlock()

	c.dialer = d
	return c
}

// Start connects in the background. The registry is frozen first.
func (c *Client) Start() {
	c.registry.Freeze()

	c.wg.Add(1)
	go c.connect()
}

func (c *Client) connect() {
	defer c.wg.Done()

Reconnect:
	stream := c.dial()
	if stream == nil {
		return
	}

	c.Lock()
	if c.ctx.Err() != nil {
		c.Unlock()
		stream.Close()
		return
	}
	conn := NewConn(stream, c.registry, &c.conf.ConnConf)
	c.conn = conn
	c.Unlock()

	metrics := c.conf.Metrics
	metrics.IncConnects()
	xlog.Log(xlog.Common, "client: connected", zap.String("url", c.conf.Url), zap.Stringer("remote", stream.RemoteAddr()))

	start := time.Now()
	err := conn.Run()
	metrics.ObserveConnDuration(time.Since(start))

	c.Lock()
	c.conn = nil
	c.Unlock()

	fields := []zap.Field{zap.String("url", c.conf.Url), zap.Duration("uptime", time.Since(start))}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	xlog.Log(xlog.Important, "client: disconnected", fields...)

	// If the connection is closed, reconnect if AutoReconnect is enabled
	if c.conf.AutoReconnect && c.sleep() {
		goto Reconnect
	}
}

// dial retries until a stream opens or the client closes.
func (c *Client) dial() network.Stream {
	for {
		c.Lock()
		dialer := c.dialer
		c.Unlock()

		stream, err := dialer(c.ctx, c.conf.Url, c.conf.DialTimeout)
		if err == nil {
			return stream
		}
		if c.ctx.Err() != nil {
			return nil
		}

		c.conf.Metrics.IncFailedConnects()
		xlog.Log(xlog.Unusual, "client: dial failed", zap.String("url", c.conf.Url), zap.Error(err))
		if !c.conf.AutoReconnect || !c.sleep() {
			return nil
		}
	}
}

// sleep waits one reconnect interval and reports whether the client is still open.
func (c *Client) sleep() bool {
	t := time.NewTimer(c.conf.ReconnectInterval)
	defer t.Stop()

	select {
	case <-c.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Conn returns the live connection, or nil between connections.
func (c *Client) Conn() *Conn {
	c.Lock()
	defer c.Unlock()

	return c.conn
}

// Wait blocks until the client stops reconnecting.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Close stops reconnecting, closes the live connection and waits for the reader to exit.
func (c *Client) Close() {
	c.Lock()
	c.cancel()
	conn := c.conn
	c.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()
}

// Dial opens a tcp or websocket stream depending on the scheme of addr.
func Dial(ctx context.Context, addr string, timeout time.Duration) (network.Stream, error) {
	scheme, host, err := splitAddr(addr)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case "ws", "wss":
		s, err := ws.Dial(ctx, addr, ws.StreamConf{HandshakeTimeout: timeout})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "tcp":
		d := net.Dialer{Timeout: timeout}
		return d.DialContext(ctx, "tcp", host)
	}
	return nil, fmt.Errorf("client: unsupported scheme %q in %q", scheme, addr)
}

func splitAddr(addr string) (scheme, host string, err error) {
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		// bare host:port
		if _, _, serr := net.SplitHostPort(addr); serr != nil {
			return "", "", fmt.Errorf("client: invalid address %q", addr)
		}
		return "tcp", addr, nil
	}
	return u.Scheme, u.Host, nil
}

func defaultClientConf(conf *ClientConf) {
	if conf.ReconnectInterval <= 0 {
		conf.ReconnectInterval = defaultReconnectInterval
	}
	if conf.DialTimeout <= 0 {
		conf.DialTimeout = defaultDialTimeout
	}
	defaultConnConf(&conf.ConnConf)
}
