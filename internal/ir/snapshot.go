package ir

// StreamSnapshot is an immutable, point-in-time copy of one stream's
// pending operations. Operation indices are stable 0-based positions and
// are the only node identifiers used by graphs and renderings.
type StreamSnapshot struct {
	Stream     StreamID
	Operations []OperationRecord
}

// NewSnapshot copies records into a new snapshot.
func NewSnapshot(stream StreamID, records []OperationRecord) StreamSnapshot {
	return StreamSnapshot{Stream: stream, Operations: CloneRecords(records)}
}

// Len returns the number of operations.
func (s StreamSnapshot) Len() int {
	return len(s.Operations)
}

// IsEmpty reports whether the snapshot holds no operations.
func (s StreamSnapshot) IsEmpty() bool {
	return len(s.Operations) == 0
}

// At returns the operation at index i. Panics if i is out of range.
func (s StreamSnapshot) At(i int) OperationRecord {
	return s.Operations[i]
}
