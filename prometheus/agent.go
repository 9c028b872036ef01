package prometheus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/czx-lab/aquinas/xlog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	mu      sync.Mutex
	server  *http.Server
	enabled atomic.Bool
)

// A Config is a prometheus config. A zero Port leaves the endpoint off.
type Config struct {
	Host string `json:",optional"`
	Port int    `json:",optional"`
	Path string `json:",default=/metrics"`
}

// Enabled reports whether Prometheus metrics are enabled.
func Enabled() bool {
	return enabled.Load()
}

// Enable turns on metric updates without serving them.
func Enable() {
	enabled.Store(true)
}

// Start enables metrics and serves them on c.Host:c.Port. Calling it again while running is a no-op.
func Start(c Config) {
	if c.Port == 0 {
		return
	}
	defaultConfig(&c)

	mu.Lock()
	defer mu.Unlock()
	if server != nil {
		return
	}

	Enable()
	mux := http.NewServeMux()
	mux.Handle(c.Path, promhttp.Handler())
	server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", c.Host, c.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func(srv *http.Server) {
		xlog.Write().Info("prometheus: serving metrics", zap.String("addr", srv.Addr), zap.String("path", c.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			xlog.Log(xlog.Unusual, "prometheus: metrics server stopped", zap.Error(err))
		}
	}(server)
}

// Stop shuts the metrics endpoint down.
func Stop(ctx context.Context) error {
	mu.Lock()
	srv := server
	server = nil
	mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func defaultConfig(conf *Config) {
	if conf.Path == "" {
		conf.Path = "/metrics"
	}
}
