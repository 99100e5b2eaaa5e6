// Package otel publishes natours engine metrics through an OpenTelemetry
// Meter.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter and
// one Int64ObservableGauge per latency bucket. A single callback reads
// [natours.Engine.MetricsSnapshot] on every collection cycle. The caller owns
// the MeterProvider.
package otel
