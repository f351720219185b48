package ir

import (
	"fmt"
	"slices"
)

// OperationRecord is one deferred operation in a stream's pending queue.
// Records are immutable once enqueued.
type OperationRecord struct {
	Kind    OpKind
	Inputs  []TensorRef
	Outputs []TensorID
}

// Op is a convenience constructor used by tests and the workload loader.
func Op(kind OpKind, inputs []TensorID, outputs ...TensorID) OperationRecord {
	var refs []TensorRef
	for _, id := range inputs {
		refs = append(refs, Ref(id))
	}
	return OperationRecord{Kind: kind, Inputs: refs, Outputs: outputs}
}

// Clone returns a deep copy that shares no slices or params with r.
func (r OperationRecord) Clone() OperationRecord {
	out := OperationRecord{}
	if r.Kind != nil {
		out.Kind = cloneKind(r.Kind)
	}
	if r.Inputs != nil {
		out.Inputs = make([]TensorRef, len(r.Inputs))
		copy(out.Inputs, r.Inputs)
	}
	if r.Outputs != nil {
		out.Outputs = make([]TensorID, len(r.Outputs))
		copy(out.Outputs, r.Outputs)
	}
	return out
}

// CloneRecords deep-copies a record slice. A nil slice clones to nil.
func CloneRecords(records []OperationRecord) []OperationRecord {
	if records == nil {
		return nil
	}
	out := make([]OperationRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// ValidationError represents a validation error with field path and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the record's structural rules.
// Returns all errors (not fail-fast).
func (r OperationRecord) Validate() []ValidationError {
	var errs []ValidationError

	if r.Kind == nil {
		errs = append(errs, ValidationError{Field: "kind", Message: "kind is required"})
	}

	switch k := r.Kind.(type) {
	case NumericOp:
		if k.Domain != DomainFloat && k.Domain != DomainInt {
			errs = append(errs, ValidationError{
				Field:   "kind.domain",
				Message: fmt.Sprintf("numeric operations must be Float or Int, got %s", k.Domain),
			})
		}
	case BaseOp:
		if _, err := ParseDomain(k.Domain.String()); err != nil {
			errs = append(errs, ValidationError{Field: "kind.domain", Message: err.Error()})
		}
	case DropOp:
		if !slices.Contains(r.Inputs, Ref(k.Tensor)) {
			errs = append(errs, ValidationError{
				Field:   "inputs",
				Message: fmt.Sprintf("dropped tensor %s must be listed as an input", k.Tensor),
			})
		}
	}

	seen := make(map[TensorID]bool, len(r.Outputs))
	for i, out := range r.Outputs {
		if seen[out] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("outputs[%d]", i),
				Message: fmt.Sprintf("duplicate output tensor %s", out),
			})
		}
		seen[out] = true
	}

	return errs
}
