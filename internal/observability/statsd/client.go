// Package statsd defines the metrics Sink used by the auth components and a UDP StatsD backend
// speaking the DogStatsD tag dialect.
package statsd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const dialTimeout = 5 * time.Second

// Sink receives counters, gauges, and timings. Implementations must tolerate nil tags.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// Config describes the StatsD endpoint.
type Config struct {
	Enabled    bool
	Address    string
	Prefix     string
	Logger     *slog.Logger
	GlobalTags map[string]string
	// Service, when set, is attached to every metric as the "service" tag.
	Service string
}

// Client writes one UDP datagram per metric. Safe for concurrent use.
type Client struct {
	prefix string
	base   map[string]string
	log    *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

var _ Sink = (*Client)(nil)

// NewClient dials the endpoint. A disabled config or an empty address yields a client that drops
// everything, so callers never need a nil check.
func NewClient(cfg Config) (*Client, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		prefix: metricPath(cfg.Prefix),
		base:   cleanTags(cfg.GlobalTags),
		log:    log.With("component", "statsd"),
	}
	if svc := strings.TrimSpace(cfg.Service); svc != "" {
		c.base["service"] = svc
	}

	addr := strings.TrimSpace(cfg.Address)
	if !cfg.Enabled || addr == "" {
		return c, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", addr, err)
	}
	c.conn = conn
	return c, nil
}

// Enabled reports whether metrics currently leave the process.
func (c *Client) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) Count(name string, value int64, tags map[string]string) {
	c.send(name, strconv.FormatInt(value, 10), "c", tags)
}

func (c *Client) Gauge(name string, value float64, tags map[string]string) {
	c.send(name, strconv.FormatFloat(value, 'f', -1, 64), "g", tags)
}

// Timing reports milliseconds with sub-millisecond precision.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	ms := float64(value) / float64(time.Millisecond)
	c.send(name, strconv.FormatFloat(ms, 'f', -1, 64), "ms", tags)
}

// Close drops the connection. Later sends are no-ops. Calling it twice is fine.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) send(name, value, kind string, tags map[string]string) {
	if c == nil {
		return
	}
	line := encodeLine(c.prefix, name, value, kind, mergeTags(c.base, tags))
	if line == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		c.log.Debug("statsd write failed", "metric", name, "error", err)
	}
}

// encodeLine renders "<prefix>.<name>:<value>|<kind>|#k:v,...". An empty name yields "".
func encodeLine(prefix, name, value, kind string, tags []string) string {
	metric := metricPath(name)
	if metric == "" {
		return ""
	}
	if prefix != "" {
		metric = prefix + "." + metric
	}

	var b strings.Builder
	b.Grow(len(metric) + len(value) + len(kind) + 16*len(tags))
	b.WriteString(metric)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteByte('|')
	b.WriteString(kind)
	if len(tags) > 0 {
		b.WriteString("|#")
		b.WriteString(strings.Join(tags, ","))
	}
	return b.String()
}

// metricPath turns a free-form name into dot-separated segments. Spaces and slashes become
// underscores; empty segments disappear.
func metricPath(raw string) string {
	raw = strings.NewReplacer(" ", "_", "/", "_").Replace(strings.TrimSpace(raw))
	parts := strings.Split(raw, ".")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// mergeTags overlays local on base and returns sorted "key:value" pairs.
func mergeTags(base, local map[string]string) []string {
	if len(base)+len(local) == 0 {
		return nil
	}
	merged := cleanTags(base)
	for k, v := range cleanTags(local) {
		merged[k] = v
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}

// cleanTags copies tags with trimmed keys and values, dropping blank keys. Never returns nil.
func cleanTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if k = strings.TrimSpace(k); k != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}
