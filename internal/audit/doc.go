// Package audit implements async event dispatching for account-security operations.
//
// # Components
//
//   - [Sink] for event consumers (channel, JSON writer, slog, no-op).
//   - [Dispatcher], a buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event], the structured audit record.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// events to emit; the Engine does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goAccount or any sibling internal package.
package audit
