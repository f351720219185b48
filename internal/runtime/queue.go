package runtime

import (
	"sync"

	"github.com/roach88/fusionscope/internal/ir"
)

// opQueue is one stream's FIFO of pending operation records.
//
// Records are cloned on the way in and on the way out, so neither the
// caller of enqueue nor a snapshot ever aliases queue storage.
type opQueue struct {
	mu  sync.Mutex
	ops []ir.OperationRecord
}

func newOpQueue() *opQueue {
	return &opQueue{ops: make([]ir.OperationRecord, 0, 16)}
}

func (q *opQueue) enqueue(r ir.OperationRecord) {
	r = r.Clone()
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = append(q.ops, r)
}

// copyOps returns a deep copy of the pending records, nil when empty.
func (q *opQueue) copyOps() []ir.OperationRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ops) == 0 {
		return nil
	}
	return ir.CloneRecords(q.ops)
}

// drain removes and returns every pending record.
func (q *opQueue) drain() []ir.OperationRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ops) == 0 {
		return nil
	}
	out := q.ops
	q.ops = make([]ir.OperationRecord, 0, cap(out))
	return out
}

func (q *opQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}
