package metrics

import (
	"strconv"
	"time"

	"github.com/czx-lab/aquinas/metrics"
	"github.com/czx-lab/aquinas/network"
	prom "github.com/prometheus/client_golang/prometheus"
)

type (
	// ClientMetrics reports connection and frame activity to prometheus.
	ClientMetrics struct {
		// connection metrics
		connected    metrics.Gauge
		connects     metrics.Counter
		connDuration metrics.Histogram

		// frame metrics
		receivedBytes metrics.Counter
		sentBytes     metrics.Counter
		frames        metrics.Counter
		frameSize     metrics.Summary

		// error metrics
		errors metrics.Counter
	}
	// ClientMetricsConf defines the configuration for client metrics
	ClientMetricsConf struct {
		Namespace string
		Subsystem string
		// Registerer defaults to the process-wide prometheus registry
		Registerer prom.Registerer
	}
)

var _ network.ClientMetrics = (*ClientMetrics)(nil)

func NewClientMetrics(conf ClientMetricsConf) *ClientMetrics {
	opt := func(name, help string, labels ...string) *metrics.VectorOption {
		return &metrics.VectorOption{
			Namespace:  conf.Namespace,
			Subsystem:  conf.Subsystem,
			Name:       name,
			Help:       help,
			Labels:     labels,
			Registerer: conf.Registerer,
		}
	}

	return &ClientMetrics{
		connected:     metrics.NewGauge(opt("connected", "1 while a server connection is open")),
		connects:      metrics.NewCounter(opt("connects_total", "total number of established connections")),
		receivedBytes: metrics.NewCounter(opt("received_bytes_total", "total bytes received")),
		sentBytes:     metrics.NewCounter(opt("sent_bytes_total", "total bytes sent")),
		frames:        metrics.NewCounter(opt("frames_total", "dispatched frames by channel", "channel")),
		connDuration: metrics.NewHistogram(&metrics.HistogramVecOpts{
			VectorOption: *opt("connection_duration_seconds", "connection duration in seconds"),
			Buckets:      []float64{1, 10, 60, 300, 600, 1800, 3600},
		}),
		frameSize: metrics.NewSummary(&metrics.SummaryVecOpts{
			VectorOption: *opt("frame_size_bytes", "payload size of dispatched frames by channel", "channel"),
			Objectives:   map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
		// connect/read/write or a protocol error cause
		errors: metrics.NewCounter(opt("errors_total", "total errors by type", "type")),
	}
}

// AddReceivedBytes implements network.ClientMetrics.
func (c *ClientMetrics) AddReceivedBytes(bytes int) {
	c.receivedBytes.Add(float64(bytes))
}

// AddSentBytes implements network.ClientMetrics.
func (c *ClientMetrics) AddSentBytes(bytes int) {
	c.sentBytes.Add(float64(bytes))
}

// Close implements network.ClientMetrics.
func (c *ClientMetrics) Close() error {
	for _, m := range []metrics.Metrics{
		c.connected, c.connects, c.connDuration, c.receivedBytes, c.sentBytes, c.frames, c.frameSize, c.errors,
	} {
		if err := m.Close(); err != nil {
			return err
		}
	}
	return nil
}

// IncConnects implements network.ClientMetrics.
func (c *ClientMetrics) IncConnects() {
	c.connects.Inc()
	c.connected.Set(1)
}

// IncFailedConnects implements network.ClientMetrics.
func (c *ClientMetrics) IncFailedConnects() {
	c.errors.Inc("connect")
}

// IncFrames implements network.ClientMetrics.
func (c *ClientMetrics) IncFrames(channel network.ChannelID, size int) {
	label := strconv.FormatUint(uint64(channel), 10)
	c.frames.Inc(label)
	c.frameSize.Observe(float64(size), label)
}

// IncProtocolErrors implements network.ClientMetrics.
func (c *ClientMetrics) IncProtocolErrors(reason string) {
	c.errors.Inc(reason)
}

// IncReadErrors implements network.ClientMetrics.
func (c *ClientMetrics) IncReadErrors() {
	c.errors.Inc("read")
}

// IncWriteErrors implements network.ClientMetrics.
func (c *ClientMetrics) IncWriteErrors() {
	c.errors.Inc("write")
}

// ObserveConnDuration implements network.ClientMetrics.
func (c *ClientMetrics) ObserveConnDuration(duration time.Duration) {
	c.connected.Set(0)
	c.connDuration.Observe(duration.Seconds())
}
