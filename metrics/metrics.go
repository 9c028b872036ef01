package metrics

import (
	"errors"
	"fmt"

	"github.com/czx-lab/aquinas/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
)

type (
	// VectorOption defines options for creating metric vectors.
	VectorOption struct {
		Namespace string
		Subsystem string
		Name      string
		Help      string
		Labels    []string
		// Registerer defaults to the process-wide prometheus registry
		Registerer prom.Registerer
	}
	// Metrics defines the interface for metrics collection and reporting.
	Metrics interface {
		// Close unregisters the metric.
		Close() error
	}
	// Counter defines the interface for a counter metric.
	Counter interface {
		Metrics
		Inc(labels ...string)
		Add(delta float64, labels ...string)
	}
	// Gauge defines the interface for a gauge metric.
	Gauge interface {
		Metrics
		Set(value float64, labels ...string)
		Inc(labels ...string)
		Dec(labels ...string)
	}
	// Histogram defines the interface for a histogram metric.
	Histogram interface {
		Metrics
		Observe(value float64, labels ...string)
	}
	// Summary defines the interface for a summary metric.
	Summary interface {
		Metrics
		Observe(value float64, labels ...string)
	}
)

func (o *VectorOption) registerer() prom.Registerer {
	if o.Registerer != nil {
		return o.Registerer
	}
	return prom.DefaultRegisterer
}

// register adds c to r. An equal collector registered earlier is reused
// so a reconnecting client can rebuild its metrics.
func register[C prom.Collector](r prom.Registerer, c C) C {
	if err := r.Register(c); err != nil {
		var are prom.AlreadyRegisteredError
		if errors.As(err, &are) {
			if prev, ok := are.ExistingCollector.(C); ok {
				return prev
			}
		}
		panic(err)
	}
	return c
}

func unregister(r prom.Registerer, c prom.Collector, kind string) error {
	if r.Unregister(c) {
		return nil
	}
	return fmt.Errorf("failed to unregister %s metric", kind)
}

func update(fn func()) {
	if !prometheus.Enabled() {
		return
	}
	fn()
}
