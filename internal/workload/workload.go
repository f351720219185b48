// Package workload loads scripted runtime workloads from YAML or CUE and
// replays them into a runtime.
//
// A workload is an ordered list of steps. Each step either enqueues one
// operation on a stream or forces execution of a stream. Tensors are named
// symbolically; a name is bound to a fresh runtime tensor id on first use
// and keeps that id for the rest of the workload.
package workload

import (
	"fmt"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/fusionscope/internal/ir"
)

// ExecuteMode names the trigger a step forces.
type ExecuteMode string

const (
	// ExecuteSync forces execution as a tensor read-back would.
	ExecuteSync ExecuteMode = "sync"
	// ExecuteAlways forces execution unconditionally.
	ExecuteAlways ExecuteMode = "always"
)

// Trigger returns the plan trigger for the mode.
func (m ExecuteMode) Trigger() ir.Trigger {
	if m == ExecuteAlways {
		return ir.Always()
	}
	return ir.OnSync()
}

// Workload is a named, ordered script of runtime steps.
type Workload struct {
	Name        string
	Description string
	Steps       []Step
}

// Step either enqueues Op on Stream or, when Execute is set, forces
// execution of Stream.
type Step struct {
	Stream  ir.StreamID
	Op      *OpStep
	Execute ExecuteMode
}

// OpStep describes one operation with symbolic tensor names.
type OpStep struct {
	// Kind is the kind name, e.g. "NumericFloat" or "Module".
	Kind  string
	DType string
	Name  string
	// ID is the Custom operation id.
	ID string
	// Drop names the tensor a Drop operation releases.
	Drop    string
	Params  ir.IRObject
	Inputs  []string
	Outputs []string
}

// LoadError reports an invalid workload, with a source position when the
// format provides one.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads a workload file, choosing the format by extension:
// .yaml/.yml or .cue.
func Load(path string) (*Workload, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".cue":
		return LoadCUE(path)
	default:
		return nil, fmt.Errorf("unsupported workload format %q (want .yaml, .yml or .cue)", filepath.Ext(path))
	}
}

// validate checks structure only; kinds are checked again when the step
// is applied.
func validate(w *Workload) error {
	if w.Name == "" {
		return &LoadError{Field: "name", Message: "name is required"}
	}
	if len(w.Steps) == 0 {
		return &LoadError{Field: "steps", Message: "steps list is required and must be non-empty"}
	}
	for i, step := range w.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		switch {
		case step.Op != nil && step.Execute != "":
			return &LoadError{Field: field, Message: "a step has either op or execute, not both"}
		case step.Op == nil && step.Execute == "":
			return &LoadError{Field: field, Message: "a step needs op or execute"}
		case step.Execute != "" && step.Execute != ExecuteSync && step.Execute != ExecuteAlways:
			return &LoadError{Field: field + ".execute", Message: fmt.Sprintf("unknown mode %q (want sync or always)", step.Execute)}
		}
		if step.Op != nil {
			if _, err := ir.NewKind(step.Op.spec(0)); err != nil {
				return &LoadError{Field: field + ".op", Message: err.Error()}
			}
			if step.Op.Kind == "Drop" && step.Op.Drop == "" {
				return &LoadError{Field: field + ".op.drop", Message: "drop needs a tensor name"}
			}
		}
	}
	return nil
}

// spec returns the kind spec with the Drop tensor resolved to drop.
func (o *OpStep) spec(drop ir.TensorID) ir.KindSpec {
	return ir.KindSpec{
		Type:   o.Kind,
		DType:  ir.DType(o.DType),
		Name:   o.Name,
		ID:     o.ID,
		Tensor: drop,
		Params: o.Params,
	}
}
