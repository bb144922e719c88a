// Package otel binds goAccount engine metrics to an OpenTelemetry Meter.
//
// Each counter becomes an Int64ObservableCounter and each latency bucket an
// Int64ObservableGauge. Callers own the MeterProvider.
package otel
