// Package prom exposes statsd-style metrics through a Prometheus registry.
package prom

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caquick/caquick-api/internal/observability/statsd"
)

// Config configures a Sink.
type Config struct {
	// Namespace prefixes every metric name, e.g. "caquick".
	Namespace string
	// Labels fixes the label names per metric. Tags outside the list are dropped and missing
	// ones are exported as "". Metrics not listed carry no labels.
	Labels map[string][]string
	// Registry defaults to a fresh registry with Go and process collectors.
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Sink implements statsd.Sink on top of Prometheus vectors created on first use.
type Sink struct {
	namespace string
	labels    map[string][]string
	registry  *prometheus.Registry
	logger    *slog.Logger

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

var _ statsd.Sink = (*Sink)(nil)

// NewSink builds a Sink.
func NewSink(cfg Config) *Sink {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return &Sink{
		namespace:  sanitize(cfg.Namespace),
		labels:     cfg.Labels,
		registry:   reg,
		logger:     logger,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// Registry returns the underlying registry.
func (s *Sink) Registry() *prometheus.Registry { return s.registry }

// Count adds value to the counter name. Negative values are ignored.
func (s *Sink) Count(name string, value int64, tags map[string]string) {
	if s == nil || value < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	vec, ok := s.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      sanitize(name) + "_total",
			Help:      "Count of " + name + ".",
		}, s.labelNames(name))
		if !s.register(name, vec) {
			return
		}
		s.counters[name] = vec
	}
	vec.With(s.values(name, tags)).Add(float64(value))
}

// Gauge sets the gauge name.
func (s *Sink) Gauge(name string, value float64, tags map[string]string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	vec, ok := s.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: s.namespace,
			Name:      sanitize(name),
			Help:      "Last value of " + name + ".",
		}, s.labelNames(name))
		if !s.register(name, vec) {
			return
		}
		s.gauges[name] = vec
	}
	vec.With(s.values(name, tags)).Set(value)
}

// Timing observes value in seconds on the histogram name.
func (s *Sink) Timing(name string, value time.Duration, tags map[string]string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	vec, ok := s.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: s.namespace,
			Name:      sanitize(name) + "_seconds",
			Help:      "Latency of " + name + ".",
			Buckets:   prometheus.DefBuckets,
		}, s.labelNames(name))
		if !s.register(name, vec) {
			return
		}
		s.histograms[name] = vec
	}
	vec.With(s.values(name, tags)).Observe(value.Seconds())
}

func (s *Sink) register(name string, c prometheus.Collector) bool {
	if err := s.registry.Register(c); err != nil {
		s.logger.Warn("prometheus register failed", "metric", name, "error", err)
		return false
	}
	return true
}

func (s *Sink) labelNames(name string) []string {
	names := s.labels[name]
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = sanitize(n)
	}
	return out
}

func (s *Sink) values(name string, tags map[string]string) prometheus.Labels {
	names := s.labels[name]
	out := make(prometheus.Labels, len(names))
	for _, n := range names {
		out[sanitize(n)] = strings.TrimSpace(tags[n])
	}
	return out
}

// sanitize maps a statsd name onto the Prometheus charset: dots, dashes and spaces become
// underscores.
func sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ':':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
