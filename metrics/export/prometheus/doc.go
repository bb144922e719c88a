// Package prometheus serves goAccount engine metrics in the Prometheus text
// format without pulling in the Prometheus client library.
//
// Counters are named goaccount_*_total. The stamp validation histogram,
// goaccount_stamp_validate_latency_seconds, appears only when latency
// histograms are enabled. Callers mount [Exporter.Handler] themselves; nothing
// is registered globally.
package prometheus
