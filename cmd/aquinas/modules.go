package main

import (
	"context"
	"time"

	"github.com/czx-lab/aquinas"
	"github.com/czx-lab/aquinas/network/metrics"
	"github.com/czx-lab/aquinas/network/tcp"
	"github.com/czx-lab/aquinas/prometheus"
	"github.com/czx-lab/aquinas/xlog"
	"go.uber.org/zap"
)

type (
	// clientModule runs the game connection. stopped closes once the client gives up.
	clientModule struct {
		client  *tcp.Client
		metrics *metrics.ClientMetrics
		stopped chan struct{}
	}

	metricsModule struct {
		conf prometheus.Config
	}
)

var (
	_ aquinas.Module = (*clientModule)(nil)
	_ aquinas.Module = (*metricsModule)(nil)
)

func newClientModule(c *tcp.Client, m *metrics.ClientMetrics) *clientModule {
	return &clientModule{client: c, metrics: m, stopped: make(chan struct{})}
}

func (m *clientModule) Init() {}

func (m *clientModule) Run(done chan struct{}) {
	m.client.Start()

	go func() {
		m.client.Wait()
		close(m.stopped)
	}()

	select {
	case <-done:
	case <-m.stopped:
	}
}

func (m *clientModule) Destroy() {
	m.client.Close()
	if err := m.metrics.Close(); err != nil {
		xlog.Log(xlog.Unusual, "metrics: unregister", zap.Error(err))
	}
}

func newMetricsModule(conf prometheus.Config) *metricsModule {
	return &metricsModule{conf: conf}
}

func (m *metricsModule) Init() {
	prometheus.Start(m.conf)
}

func (m *metricsModule) Run(done chan struct{}) {
	<-done
}

func (m *metricsModule) Destroy() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := prometheus.Stop(ctx); err != nil {
		xlog.Log(xlog.Unusual, "prometheus: stop", zap.Error(err))
	}
}
