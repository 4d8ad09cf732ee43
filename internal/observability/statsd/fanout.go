package statsd

import "time"

// Discard drops every metric.
var Discard Sink = discard{}

type discard struct{}

func (discard) Count(string, int64, map[string]string) {}
func (discard) Gauge(string, float64, map[string]string) {}
func (discard) Timing(string, time.Duration, map[string]string) {}

// Fanout returns a Sink that forwards to every non-nil sink. With no sinks it returns Discard;
// with one it returns that sink unchanged.
func Fanout(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Discard
	case 1:
		return out[0]
	}
	return out
}

type multi []Sink

func (m multi) Count(name string, value int64, tags map[string]string) {
	for _, s := range m {
		s.Count(name, value, cleanTags(tags))
	}
}

func (m multi) Gauge(name string, value float64, tags map[string]string) {
	for _, s := range m {
		s.Gauge(name, value, cleanTags(tags))
	}
}

func (m multi) Timing(name string, value time.Duration, tags map[string]string) {
	for _, s := range m {
		s.Timing(name, value, cleanTags(tags))
	}
}
