package prom

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSink() *Sink {
	return NewSink(Config{
		Namespace: "caquick",
		Registry:  prometheus.NewRegistry(),
		Labels: map[string][]string{
			"auth.login": {"method", "result"},
		},
	})
}

func scrape(t *testing.T, s *Sink) string {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestSink_Count(t *testing.T) {
	s := newTestSink()

	s.Count("auth.login", 1, map[string]string{"method": "oidc_google", "result": "success", "extra": "x"})
	s.Count("auth.login", 2, map[string]string{"method": "oidc_google", "result": "success"})
	s.Count("auth.login", 1, map[string]string{"method": "local_credential"})
	s.Count("auth.login", -1, nil)

	body := scrape(t, s)
	assert.Contains(t, body, `caquick_auth_login_total{method="oidc_google",result="success"} 3`)
	assert.Contains(t, body, `caquick_auth_login_total{method="local_credential",result=""} 1`)
	assert.NotContains(t, body, "extra")
}

func TestSink_UnlabeledMetricIgnoresTags(t *testing.T) {
	s := newTestSink()

	s.Count("auth.refresh_reuse", 1, map[string]string{"anything": "x"})
	s.Gauge("auth.refresh_reuse.revoked_sessions", 4, nil)

	body := scrape(t, s)
	assert.Contains(t, body, "caquick_auth_refresh_reuse_total 1")
	assert.Contains(t, body, "caquick_auth_refresh_reuse_revoked_sessions 4")
}

func TestSink_Timing(t *testing.T) {
	s := newTestSink()
	s.Timing("auth.login.duration", 250*time.Millisecond, nil)
	s.Timing("auth.login.duration", 750*time.Millisecond, nil)

	body := scrape(t, s)
	assert.Contains(t, body, "caquick_auth_login_duration_seconds_count 2")
	assert.Contains(t, body, "caquick_auth_login_duration_seconds_sum 1")
}

func TestSink_NilSafe(t *testing.T) {
	var s *Sink
	assert.NotPanics(t, func() {
		s.Count("x", 1, nil)
		s.Gauge("x", 1, nil)
		s.Timing("x", time.Second, nil)
	})
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"auth.login":          "auth_login",
		" auth.guard ":        "auth_guard",
		"seller-throttled":    "seller_throttled",
		".leading.and.trail.": "leading_and_trail",
		"a b/c":               "a_b_c",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitize(in), in)
	}
}
