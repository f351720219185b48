package ir

import "fmt"

// TensorID is a process-unique tensor identifier assigned by the runtime.
type TensorID uint64

// String renders the id as "T<n>".
func (id TensorID) String() string {
	return fmt.Sprintf("T%d", uint64(id))
}

// StreamID identifies one execution stream.
type StreamID uint64

// String renders the id as "stream-<n>".
func (id StreamID) String() string {
	return fmt.Sprintf("stream-%d", uint64(id))
}

// TensorRef is an operation input. It names a tensor only; whether the
// tensor is external or produced inside a snapshot is derived later.
type TensorRef struct {
	ID TensorID `json:"id"`
}

// Ref is a shorthand for TensorRef{ID: id}.
func Ref(id TensorID) TensorRef {
	return TensorRef{ID: id}
}

// Provenance classifies where an input tensor came from relative to a
// snapshot. The zero value is External.
type Provenance struct {
	produced bool
	producer int
}

// External is the provenance of an input with no producer in the snapshot.
// This includes tensors produced on other streams or by batches that were
// already executed; the two cases cannot be told apart.
func External() Provenance {
	return Provenance{}
}

// Produced is the provenance of an input written by the operation at index.
func Produced(index int) Provenance {
	return Provenance{produced: true, producer: index}
}

// IsExternal reports whether no producer was found in the snapshot.
func (p Provenance) IsExternal() bool {
	return !p.produced
}

// Producer returns the producing operation index and true, or -1 and false
// for external inputs.
func (p Provenance) Producer() (int, bool) {
	if !p.produced {
		return -1, false
	}
	return p.producer, true
}

// String renders "external" or "from Op[p]".
func (p Provenance) String() string {
	if !p.produced {
		return "external"
	}
	return fmt.Sprintf("from Op[%d]", p.producer)
}
