// Package inspect is the read-only debug surface over a deferred runtime.
//
// An Inspector never mutates, drains or executes anything. Every value it
// returns is a copy taken at call time; no lock is held once a call returns.
package inspect

import (
	"github.com/roach88/fusionscope/internal/depgraph"
	"github.com/roach88/fusionscope/internal/ir"
)

// StreamRegistry enumerates streams and copies their pending queues.
// CopyQueue must return a copy the caller may keep, and false only for
// unknown streams. Pending is the queue length, 0 for unknown streams.
type StreamRegistry interface {
	StreamIDs() []ir.StreamID
	CopyQueue(stream ir.StreamID) ([]ir.OperationRecord, bool)
	Pending(stream ir.StreamID) int
}

// PlanRegistry enumerates materialized execution plans.
type PlanRegistry interface {
	Plans() []ir.ExecutionPlan
}

// Inspector answers debug queries against a stream registry and a plan
// registry.
type Inspector struct {
	streams StreamRegistry
	plans   PlanRegistry
}

// New returns an Inspector. plans may be nil, in which case no plans are
// reported.
func New(streams StreamRegistry, plans PlanRegistry) *Inspector {
	return &Inspector{streams: streams, plans: plans}
}

// Snapshot returns the stream's pending operations. ok is false when the
// stream is unknown or has no pending operations.
func (in *Inspector) Snapshot(stream ir.StreamID) (ir.StreamSnapshot, bool) {
	ops, ok := in.streams.CopyQueue(stream)
	if !ok || len(ops) == 0 {
		return ir.StreamSnapshot{}, false
	}
	return ir.StreamSnapshot{Stream: stream, Operations: ops}, true
}

// SnapshotAll returns a snapshot of every stream with pending operations.
// Streams with nothing pending are omitted.
func (in *Inspector) SnapshotAll() map[ir.StreamID]ir.StreamSnapshot {
	out := make(map[ir.StreamID]ir.StreamSnapshot)
	for _, id := range in.streams.StreamIDs() {
		if snap, ok := in.Snapshot(id); ok {
			out[id] = snap
		}
	}
	return out
}

// StreamIDs returns, ascending, the streams that currently have pending
// operations.
func (in *Inspector) StreamIDs() []ir.StreamID {
	var out []ir.StreamID
	for _, id := range in.streams.StreamIDs() {
		if in.streams.Pending(id) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// Plans returns the registered execution plans.
func (in *Inspector) Plans() []ir.ExecutionPlan {
	if in.plans == nil {
		return nil
	}
	return in.plans.Plans()
}

// Summary aggregates the current fusion state. It is recomputed on every
// call.
//
// StreamCount counts streams with pending operations or with at least one
// plan attributed to them; TotalOperations sums pending queue lengths.
func (in *Inspector) Summary() ir.FusionDebugSummary {
	active := make(map[ir.StreamID]bool)
	total := 0
	for _, id := range in.streams.StreamIDs() {
		n := in.streams.Pending(id)
		if n == 0 {
			continue
		}
		active[id] = true
		total += n
	}

	plans := in.Plans()
	stats := make([]ir.ExecutionPlanStats, len(plans))
	for i, p := range plans {
		stats[i] = p.Stats()
		for _, s := range p.Streams {
			active[s] = true
		}
	}

	return ir.FusionDebugSummary{
		StreamCount:            len(active),
		TotalOperations:        total,
		ExecutionPlanCount:     len(plans),
		ExecutionPlanSummaries: stats,
	}
}

// DependencyMap maps every operation index of ops to the ascending indices
// of the operations it depends on.
func DependencyMap(ops []ir.OperationRecord) map[int][]int {
	return depgraph.Build(ops).DependencyMap()
}
