package metrics

import prom "github.com/prometheus/client_golang/prometheus"

type promGauge struct {
	reg   prom.Registerer
	gauge *prom.GaugeVec
}

var _ Gauge = (*promGauge)(nil)

func NewGauge(conf *VectorOption) Gauge {
	if conf == nil {
		return nil
	}
	reg := conf.registerer()
	vec := register(reg, prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: conf.Namespace,
		Subsystem: conf.Subsystem,
		Name:      conf.Name,
		Help:      conf.Help,
	}, conf.Labels))
	return &promGauge{reg: reg, gauge: vec}
}

// Close implements Gauge.
func (p *promGauge) Close() error {
	return unregister(p.reg, p.gauge, "gauge")
}

// Dec implements Gauge.
func (p *promGauge) Dec(labels ...string) {
	update(func() {
		p.gauge.WithLabelValues(labels...).Dec()
	})
}

// Inc implements Gauge.
func (p *promGauge) Inc(labels ...string) {
	update(func() {
		p.gauge.WithLabelValues(labels...).Inc()
	})
}

// Set implements Gauge.
func (p *promGauge) Set(value float64, labels ...string) {
	update(func() {
		p.gauge.WithLabelValues(labels...).Set(value)
	})
}
