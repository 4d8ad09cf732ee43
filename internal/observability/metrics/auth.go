package metrics

import (
	"time"

	obserrors "github.com/caquick/caquick-api/internal/observability/errors"
	"github.com/caquick/caquick-api/internal/observability/statsd"
)

// Auth metric names.
const (
	MetricLogin           = "auth.login"
	MetricLoginDuration   = "auth.login.duration"
	MetricRefresh         = "auth.refresh"
	MetricRefreshReuse    = "auth.refresh_reuse"
	MetricGuard           = "auth.guard"
	MetricSellerThrottled = "auth.seller_throttled"
)

// AuthLabels lists the tag keys each auth metric may carry. Backends with fixed label sets,
// such as Prometheus, use it to declare their vectors.
func AuthLabels() map[string][]string {
	return map[string][]string{
		MetricLogin:         {"method", "result", "error_class"},
		MetricLoginDuration: {"method", "result", "error_class"},
		MetricRefresh:       {"kind", "result", "error_class"},
		MetricGuard:         {"result", "error_class"},
	}
}

// LoginMetric describes one login attempt.
type LoginMetric struct {
	// Method is the login method name, e.g. "oidc_google" or "local_credential".
	Method   string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitLogin records a login attempt and, when known, its latency.
func EmitLogin(sink statsd.Sink, in LoginMetric) {
	if sink == nil {
		return
	}
	tags := withErrorClass(map[string]string{
		"method": in.Method,
		"result": in.Result,
	}, in.Result, in.Err)

	sink.Count(MetricLogin, 1, tags)
	if in.Duration > 0 {
		sink.Timing(MetricLoginDuration, in.Duration, CloneTags(tags))
	}
}

// EmitRefresh records a refresh-token rotation attempt. Kind is "user" or "seller".
func EmitRefresh(sink statsd.Sink, kind, result string, err error) {
	if sink == nil {
		return
	}
	sink.Count(MetricRefresh, 1, withErrorClass(map[string]string{
		"kind":   kind,
		"result": result,
	}, result, err))
}

// EmitRefreshReuse records a presented refresh token that had already been rotated away.
func EmitRefreshReuse(sink statsd.Sink, revokedSessions int64) {
	if sink == nil {
		return
	}
	sink.Count(MetricRefreshReuse, 1, nil)
	if revokedSessions > 0 {
		sink.Gauge(MetricRefreshReuse+".revoked_sessions", float64(revokedSessions), nil)
	}
}

// EmitGuard records the outcome of an inbound access check.
func EmitGuard(sink statsd.Sink, result string, err error) {
	if sink == nil {
		return
	}
	sink.Count(MetricGuard, 1, withErrorClass(map[string]string{"result": result}, result, err))
}

// EmitSellerThrottled records a seller login rejected by the attempt budget.
func EmitSellerThrottled(sink statsd.Sink) {
	if sink == nil {
		return
	}
	sink.Count(MetricSellerThrottled, 1, nil)
}

// ResultFor maps an error to ResultSuccess or ResultError.
func ResultFor(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

func withErrorClass(tags map[string]string, result string, err error) map[string]string {
	if err != nil && result == ResultError {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}
	return tags
}
