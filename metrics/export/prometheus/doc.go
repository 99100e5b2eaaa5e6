// Package prometheus exposes natours engine metrics as a
// client_golang Collector.
//
// Every scrape reads one Engine.MetricsSnapshot. Counter names are
// natours_*_total; the gate latency histogram is
// natours_gate_latency_seconds. The sum of the histogram is not tracked and
// is always reported as zero.
package prometheus
