// Package metrics provides lock-free counters and a latency histogram for the
// account engine.
//
// Counters live in cache-line-padded uint64 slots and are incremented with
// [sync/atomic.AddUint64]. The stamp-validation histogram uses 8 fixed buckets
// (≤5ms … +Inf). Neither allocates on the write path.
//
// Export (Prometheus, OpenTelemetry) lives in metrics/export and reads
// [Snapshot] values. This package performs no I/O and imports nothing from
// the module.
package metrics
