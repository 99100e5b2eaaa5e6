package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/natours"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot natours.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() natours.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: natours.MetricsSnapshot{
			Counters:   map[natours.MetricID]uint64{},
			Histograms: map[natours.MetricID][]uint64{},
		},
	})
	if n := testutil.CollectAndCount(c); n != 0 {
		t.Fatalf("expected no series, got %d", n)
	}
}

func TestCollectCountersAndHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: natours.MetricsSnapshot{
			Counters: map[natours.MetricID]uint64{
				natours.MetricLoginSuccess: 7,
				natours.MetricAuthStale:    2,
			},
			Histograms: map[natours.MetricID][]uint64{
				natours.MetricGateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	expected := `
# HELP natours_login_success_total Successful logins.
# TYPE natours_login_success_total counter
natours_login_success_total 7
# HELP natours_auth_stale_total Tokens issued before the latest password change.
# TYPE natours_auth_stale_total counter
natours_auth_stale_total 2
# HELP natours_audit_dropped_total Audit events dropped under dispatcher backpressure.
# TYPE natours_audit_dropped_total counter
natours_audit_dropped_total 2
# HELP natours_gate_latency_seconds Time spent in the access-control gate.
# TYPE natours_gate_latency_seconds histogram
natours_gate_latency_seconds_bucket{le="0.005"} 1
natours_gate_latency_seconds_bucket{le="0.01"} 3
natours_gate_latency_seconds_bucket{le="0.025"} 6
natours_gate_latency_seconds_bucket{le="0.05"} 10
natours_gate_latency_seconds_bucket{le="0.1"} 15
natours_gate_latency_seconds_bucket{le="0.25"} 21
natours_gate_latency_seconds_bucket{le="0.5"} 28
natours_gate_latency_seconds_bucket{le="+Inf"} 36
natours_gate_latency_seconds_sum 0
natours_gate_latency_seconds_count 36
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"natours_login_success_total",
		"natours_auth_stale_total",
		"natours_audit_dropped_total",
		"natours_gate_latency_seconds",
	)
	if err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: natours.MetricsSnapshot{
			Counters:   map[natours.MetricID]uint64{natours.MetricSignupSuccess: 1},
			Histograms: map[natours.MetricID][]uint64{},
		},
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "natours_signup_success_total 1") {
		t.Fatalf("missing counter in:\n%s", rec.Body.String())
	}
}

func TestCollectorLint(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: natours.MetricsSnapshot{
			Counters: map[natours.MetricID]uint64{natours.MetricLoginSuccess: 1},
		},
	})
	problems, err := testutil.CollectAndLint(c)
	if err != nil {
		t.Fatalf("lint failed: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("lint problems: %+v", problems)
	}
}
