package config

import (
	"log/slog"
	"slices"
	"strings"
	"time"
)

const defaultObservabilityName = "caquick"

// Metrics backends.
const (
	MetricsBackendStatsd     = "statsd"
	MetricsBackendPrometheus = "prometheus"
)

// LogConfig controls the process-wide slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Sanitize normalises level and format names.
func (c *LogConfig) Sanitize() {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format != "text" {
		c.Format = "json"
	}
}

// SlogLevel maps Level to a slog level, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ObservabilityConfig groups configuration that controls metrics and security alert fan-out.
type ObservabilityConfig struct {
	Metrics       ObservabilityMetricsConfig
	Notifications ObservabilityNotificationsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Notifications.Sanitize()
}

// ObservabilityMetricsConfig controls emission of metrics to StatsD and Prometheus.
type ObservabilityMetricsConfig struct {
	Enabled       bool     `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"true"`
	Backends      []string `env:"OBSERVABILITY_METRICS_BACKENDS"       envDefault:"prometheus"`
	StatsdAddress string   `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Namespace     string   `env:"OBSERVABILITY_METRICS_NAMESPACE"      envDefault:"caquick"`
	// Service is attached to every StatsD metric as the "service" tag.
	Service string `env:"OBSERVABILITY_METRICS_SERVICE" envDefault:"auth-api"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.Namespace = strings.TrimSpace(c.Namespace); c.Namespace == "" {
		c.Namespace = defaultObservabilityName
	}

	backends := make([]string, 0, len(c.Backends))
	for _, b := range c.Backends {
		b = strings.ToLower(strings.TrimSpace(b))
		switch b {
		case MetricsBackendStatsd:
			if c.StatsdAddress == "" {
				continue
			}
		case MetricsBackendPrometheus:
		default:
			continue
		}
		if !slices.Contains(backends, b) {
			backends = append(backends, b)
		}
	}
	c.Backends = backends
	if len(c.Backends) == 0 {
		c.Enabled = false
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && len(c.Backends) > 0
}

// StatsdEnabled reports whether the StatsD backend is selected.
func (c *ObservabilityMetricsConfig) StatsdEnabled() bool {
	return c.IsEnabled() && slices.Contains(c.Backends, MetricsBackendStatsd)
}

// PrometheusEnabled reports whether the Prometheus backend is selected.
func (c *ObservabilityMetricsConfig) PrometheusEnabled() bool {
	return c.IsEnabled() && slices.Contains(c.Backends, MetricsBackendPrometheus)
}

// ObservabilityNotificationsConfig controls outbound security alerts.
type ObservabilityNotificationsConfig struct {
	Enabled    bool                        `env:"OBSERVABILITY_NOTIFICATIONS_ENABLED"     envDefault:"false"`
	Timeout    time.Duration               `env:"OBSERVABILITY_NOTIFICATIONS_TIMEOUT"     envDefault:"5s"`
	RetryLimit int                         `env:"OBSERVABILITY_NOTIFICATIONS_RETRY_LIMIT" envDefault:"3"`
	Slack      SlackNotificationConfig     `                                                                 envPrefix:"OBSERVABILITY_NOTIFICATIONS_SLACK_"`
	PagerDuty  PagerDutyNotificationConfig `                                                                 envPrefix:"OBSERVABILITY_NOTIFICATIONS_PAGERDUTY_"`
}

// Sanitize normalises notification configuration values.
func (c *ObservabilityNotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}

	c.Slack.sanitize()
	c.PagerDuty.sanitize()

	if !c.Enabled {
		c.Slack.Enabled = false
		c.PagerDuty.Enabled = false
		return
	}

	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		c.Slack.Enabled = false
	}

	if c.PagerDuty.Enabled && c.PagerDuty.RoutingKey == "" {
		c.PagerDuty.Enabled = false
	}
}

// SlackNotificationConfig controls Slack webhook fan-out.
type SlackNotificationConfig struct {
	Enabled          bool   `env:"ENABLED"            envDefault:"false"`
	WebhookURL       string `env:"WEBHOOK_URL"`
	Channel          string `env:"CHANNEL"`
	Username         string `env:"USERNAME"           envDefault:"caquick"`
	AccountURLPrefix string `env:"ACCOUNT_URL_PREFIX"`
}

func (c *SlackNotificationConfig) sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	c.AccountURLPrefix = strings.TrimSpace(c.AccountURLPrefix)
	if c.Username == "" {
		c.Username = defaultObservabilityName
	}
}

// PagerDutyNotificationConfig controls PagerDuty Events API v2 fan-out.
type PagerDutyNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	RoutingKey string `env:"ROUTING_KEY"`
	Source     string `env:"SOURCE"      envDefault:"caquick-api"`
	Component  string `env:"COMPONENT"   envDefault:"auth"`
}

func (c *PagerDutyNotificationConfig) sanitize() {
	c.RoutingKey = strings.TrimSpace(c.RoutingKey)
	if c.Source = strings.TrimSpace(c.Source); c.Source == "" {
		c.Source = "caquick-api"
	}
	if c.Component = strings.TrimSpace(c.Component); c.Component == "" {
		c.Component = "auth"
	}
}
