package statsd

import (
	"testing"
	"time"
)

type countingSink struct {
	counts  int
	gauges  int
	timings int
	lastTag map[string]string
}

func (c *countingSink) Count(_ string, _ int64, tags map[string]string) {
	c.counts++
	c.lastTag = tags
}
func (c *countingSink) Gauge(string, float64, map[string]string) { c.gauges++ }
func (c *countingSink) Timing(string, time.Duration, map[string]string) { c.timings++ }

func TestFanoutForwardsToAll(t *testing.T) {
	t.Parallel()

	a, b := &countingSink{}, &countingSink{}
	s := Fanout(a, nil, b)

	tags := map[string]string{"result": "success"}
	s.Count("auth.login", 1, tags)
	s.Gauge("g", 1, nil)
	s.Timing("t", time.Second, nil)

	for i, c := range []*countingSink{a, b} {
		if c.counts != 1 || c.gauges != 1 || c.timings != 1 {
			t.Fatalf("sink %d: got counts=%d gauges=%d timings=%d", i, c.counts, c.gauges, c.timings)
		}
	}

	a.lastTag["result"] = "mutated"
	if b.lastTag["result"] != "success" || tags["result"] != "success" {
		t.Fatal("sinks must receive independent tag maps")
	}
}

func TestFanoutShortcuts(t *testing.T) {
	t.Parallel()

	if Fanout() != Discard {
		t.Fatal("expected Discard for no sinks")
	}
	if Fanout(nil, nil) != Discard {
		t.Fatal("expected Discard for only nil sinks")
	}
	one := &countingSink{}
	if got, ok := Fanout(one).(*countingSink); !ok || got != one {
		t.Fatal("expected single sink to be returned unchanged")
	}
}
