package metricssink

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink is the default in-process Sink, publishing one GaugeVec
// per distinct gauge name and one CounterVec per distinct counter name.
// Grounded directly on the teacher's app/plot/plot.go OutMetrics/
// OutSolMetrics pattern: a fixed registry of prometheus.GaugeVec keyed by
// labels, pushed from a solution struct — here pushed from tick-derived
// mission state instead of a GNSS solution.
type PrometheusSink struct {
	registry *prometheus.Registry

	mu       sync.Mutex
	gauges   map[string]*prometheus.GaugeVec
	counters map[string]*prometheus.CounterVec
}

// NewPrometheusSink builds a Sink registered against its own registry so
// callers can mount it at an arbitrary /metrics path without colliding with
// the global default registry.
func NewPrometheusSink() *PrometheusSink {
	return &PrometheusSink{
		registry: prometheus.NewRegistry(),
		gauges:   make(map[string]*prometheus.GaugeVec),
		counters: make(map[string]*prometheus.CounterVec),
	}
}

// Registry exposes the underlying registry for wiring into an HTTP
// /metrics handler.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}

// SetGauge registers the GaugeVec for name on first use, with its label
// names fixed by the first call's label set — every subsequent call for the
// same name must supply the same label keys.
func (s *PrometheusSink) SetGauge(name string, value float64, labels map[string]string) {
	s.mu.Lock()
	gv, ok := s.gauges[name]
	if !ok {
		gv = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, labelNames(labels))
		s.registry.MustRegister(gv)
		s.gauges[name] = gv
	}
	s.mu.Unlock()
	gv.With(labels).Set(value)
}

func (s *PrometheusSink) IncCounter(name string, labels map[string]string) {
	s.mu.Lock()
	cv, ok := s.counters[name]
	if !ok {
		cv = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, labelNames(labels))
		s.registry.MustRegister(cv)
		s.counters[name] = cv
	}
	s.mu.Unlock()
	cv.With(labels).Inc()
}

func (s *PrometheusSink) Close() error { return nil }

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	return names
}
