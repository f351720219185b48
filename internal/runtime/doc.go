// Package runtime is an in-memory deferred tensor runtime used to drive the
// inspection packages.
//
// It owns per-stream pending queues, an execution trigger that drains a
// queue into an execution plan, and the plan registry. Its optimizer never
// reorders: each drained batch becomes a plan whose strategy only decides
// which contiguous runs are fused and which run one operation at a time.
//
// Locking:
//   - each stream queue has its own mutex, so streams never block each other
//   - the stream map is guarded by an RWMutex and only write-locked when a
//     stream is first seen
//   - the plan registry has its own mutex
//
// Nothing here starts goroutines.
package runtime
