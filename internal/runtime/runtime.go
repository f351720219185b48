package runtime

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/fusionscope/internal/ir"
)

// DefaultMinFused is the shortest run of fusable operations that is fused.
const DefaultMinFused = 2

// Runtime holds per-stream pending queues and the execution-plan registry.
type Runtime struct {
	tensors *Clock
	logger  *slog.Logger

	mu      sync.RWMutex
	streams map[ir.StreamID]*opQueue

	plansMu  sync.Mutex
	plans    []ir.ExecutionPlan
	planKeys map[string]int

	minFused int
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithMinFused sets the shortest run of fusable operations that is fused.
// Values below 1 are ignored.
func WithMinFused(n int) Option {
	return func(r *Runtime) {
		if n >= 1 {
			r.minFused = n
		}
	}
}

// WithTensorClock sets the tensor id allocator.
func WithTensorClock(c *Clock) Option {
	return func(r *Runtime) {
		r.tensors = c
	}
}

// New creates an empty runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		tensors:  NewClock(),
		logger:   slog.Default(),
		streams:  make(map[ir.StreamID]*opQueue),
		planKeys: make(map[string]int),
		minFused: DefaultMinFused,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewTensor allocates a fresh tensor id.
func (r *Runtime) NewTensor() ir.TensorID {
	return ir.TensorID(r.tensors.Next())
}

// Enqueue appends a copy of rec to the stream's pending queue, creating the
// stream on first use.
func (r *Runtime) Enqueue(stream ir.StreamID, rec ir.OperationRecord) error {
	if errs := rec.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return &Error{Code: ErrCodeInvalidRecord, Message: strings.Join(msgs, "; "), Stream: stream}
	}
	r.queue(stream, true).enqueue(rec)
	return nil
}

// queue returns the stream's queue. With create set a missing queue is
// created; otherwise nil is returned for unknown streams.
func (r *Runtime) queue(stream ir.StreamID, create bool) *opQueue {
	r.mu.RLock()
	q, ok := r.streams[stream]
	r.mu.RUnlock()
	if ok || !create {
		return q
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok = r.streams[stream]; ok {
		return q
	}
	q = newOpQueue()
	r.streams[stream] = q
	return q
}

// Execute drains the stream's queue into an execution plan. A plan whose
// operation descriptors match the batch is reused: the trigger and stream
// are merged into it. Otherwise a new plan is registered.
func (r *Runtime) Execute(stream ir.StreamID, trigger ir.Trigger) (ir.ExecutionPlanStats, error) {
	q := r.queue(stream, false)
	if q == nil {
		return ir.ExecutionPlanStats{}, &Error{Code: ErrCodeUnknownStream, Message: "stream has no queue", Stream: stream}
	}
	ops := q.drain()
	if len(ops) == 0 {
		return ir.ExecutionPlanStats{}, &Error{Code: ErrCodeEmptyQueue, Message: "no pending operations", Stream: stream}
	}

	key := planKey(ops)

	r.plansMu.Lock()
	defer r.plansMu.Unlock()

	if id, ok := r.planKeys[key]; ok {
		plan := &r.plans[id]
		addTrigger(plan, trigger)
		addStream(plan, stream)
		r.logger.Debug("execution plan reused",
			"plan", id,
			"stream", stream.String(),
			"operations", len(ops),
			"trigger", trigger.String(),
		)
		return plan.Stats(), nil
	}

	plan := ir.ExecutionPlan{
		ID:         len(r.plans),
		Operations: ops,
		Triggers:   []ir.Trigger{trigger},
		Strategy:   chooseStrategy(ops, r.minFused),
		Streams:    []ir.StreamID{stream},
	}
	r.plans = append(r.plans, plan)
	r.planKeys[key] = plan.ID
	r.logger.Debug("execution plan created",
		"plan", plan.ID,
		"stream", stream.String(),
		"operations", len(ops),
		"trigger", trigger.String(),
		"strategy", plan.Strategy.String(),
	)
	return plan.Stats(), nil
}

// Sync forces execution of the stream as a tensor read-back would.
func (r *Runtime) Sync(stream ir.StreamID) (ir.ExecutionPlanStats, error) {
	return r.Execute(stream, ir.OnSync())
}

// Pending returns the number of pending operations on the stream.
func (r *Runtime) Pending(stream ir.StreamID) int {
	q := r.queue(stream, false)
	if q == nil {
		return 0
	}
	return q.len()
}

// StreamIDs returns every stream that has ever received an operation,
// ascending. Streams whose queue has drained are included.
func (r *Runtime) StreamIDs() []ir.StreamID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ir.StreamID, 0, len(r.streams))
	for id := range r.streams {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CopyQueue returns a deep copy of the stream's pending records and true,
// or nil and false for an unknown stream. A known but drained stream
// returns an empty copy and true.
func (r *Runtime) CopyQueue(stream ir.StreamID) ([]ir.OperationRecord, bool) {
	q := r.queue(stream, false)
	if q == nil {
		return nil, false
	}
	return q.copyOps(), true
}

// Plans returns deep copies of every registered plan in id order.
func (r *Runtime) Plans() []ir.ExecutionPlan {
	r.plansMu.Lock()
	defer r.plansMu.Unlock()
	out := make([]ir.ExecutionPlan, len(r.plans))
	for i, p := range r.plans {
		out[i] = p.Clone()
	}
	return out
}

func planKey(ops []ir.OperationRecord) string {
	var b strings.Builder
	for i, op := range ops {
		if i > 0 {
			b.WriteByte(0)
		}
		fmt.Fprintf(&b, "%s/%d/%d", op.Kind.Describe(), len(op.Inputs), len(op.Outputs))
	}
	return b.String()
}

// addTrigger appends t unless an equal trigger is already present.
func addTrigger(p *ir.ExecutionPlan, t ir.Trigger) {
	for _, existing := range p.Triggers {
		if existing.Equal(t) {
			return
		}
	}
	p.Triggers = append(p.Triggers, ir.Trigger{Type: t.Type, Kinds: slices.Clone(t.Kinds)})
}

// addStream inserts s keeping Streams ascending and duplicate-free.
func addStream(p *ir.ExecutionPlan, s ir.StreamID) {
	i, found := slices.BinarySearch(p.Streams, s)
	if !found {
		p.Streams = slices.Insert(p.Streams, i, s)
	}
}
