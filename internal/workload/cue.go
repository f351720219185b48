package workload

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/fusionscope/internal/ir"
)

// cueStep mirrors one step; params are walked separately so float
// literals keep their text.
type cueStep struct {
	Stream  uint64 `json:"stream"`
	Execute string `json:"execute"`
	Op      *struct {
		Kind    string   `json:"kind"`
		DType   string   `json:"dtype"`
		Name    string   `json:"name"`
		ID      string   `json:"id"`
		Drop    string   `json:"drop"`
		Inputs  []string `json:"inputs"`
		Outputs []string `json:"outputs"`
	} `json:"op"`
}

// LoadCUE reads, evaluates and validates a CUE workload.
func LoadCUE(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workload file: %w", err)
	}
	return ParseCUE(path, data)
}

// ParseCUE evaluates a CUE workload document. filename is used in error
// positions.
func ParseCUE(filename string, data []byte) (*Workload, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	w := &Workload{}
	if name := v.LookupPath(cue.ParsePath("name")); name.Exists() {
		s, err := name.String()
		if err != nil {
			return nil, &LoadError{Field: "name", Message: "must be a string", Pos: name.Pos()}
		}
		w.Name = s
	}
	if desc := v.LookupPath(cue.ParsePath("description")); desc.Exists() {
		s, err := desc.String()
		if err != nil {
			return nil, &LoadError{Field: "description", Message: "must be a string", Pos: desc.Pos()}
		}
		w.Description = s
	}

	steps := v.LookupPath(cue.ParsePath("steps"))
	if steps.Exists() {
		iter, err := steps.List()
		if err != nil {
			return nil, &LoadError{Field: "steps", Message: "must be a list", Pos: steps.Pos()}
		}
		for i := 0; iter.Next(); i++ {
			step, err := parseCUEStep(i, iter.Value())
			if err != nil {
				return nil, err
			}
			w.Steps = append(w.Steps, step)
		}
	}

	if err := validate(w); err != nil {
		return nil, fmt.Errorf("invalid workload: %w", err)
	}
	return w, nil
}

func parseCUEStep(i int, v cue.Value) (Step, error) {
	field := fmt.Sprintf("steps[%d]", i)
	var raw cueStep
	if err := v.Decode(&raw); err != nil {
		return Step{}, &LoadError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	step := Step{Stream: ir.StreamID(raw.Stream), Execute: ExecuteMode(raw.Execute)}
	if raw.Op == nil {
		return step, nil
	}

	op := &OpStep{
		Kind:    raw.Op.Kind,
		DType:   raw.Op.DType,
		Name:    raw.Op.Name,
		ID:      raw.Op.ID,
		Drop:    raw.Op.Drop,
		Inputs:  raw.Op.Inputs,
		Outputs: raw.Op.Outputs,
	}
	if params := v.LookupPath(cue.ParsePath("op.params")); params.Exists() {
		val, err := cueToIR(field+".op.params", params)
		if err != nil {
			return Step{}, err
		}
		obj, ok := val.(ir.IRObject)
		if !ok {
			return Step{}, &LoadError{Field: field + ".op.params", Message: "must be a struct", Pos: params.Pos()}
		}
		op.Params = obj
	}
	step.Op = op
	return step, nil
}

// cueToIR converts a concrete CUE value to an IR value. Float literals are
// kept as their decimal text.
func cueToIR(field string, v cue.Value) (ir.IRValue, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, &LoadError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, &LoadError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.IRInt(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, &LoadError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.IRBool(b), nil
	case cue.FloatKind:
		if lit, ok := v.Syntax().(*ast.BasicLit); ok {
			return ir.IRString(lit.Value), nil
		}
		return ir.IRString(fmt.Sprint(v)), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, &LoadError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		var arr ir.IRArray
		for i := 0; iter.Next(); i++ {
			elem, err := cueToIR(fmt.Sprintf("%s[%d]", field, i), iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		if arr == nil {
			arr = ir.IRArray{}
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, &LoadError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		obj := ir.IRObject{}
		for iter.Next() {
			key := iter.Selector().Unquoted()
			elem, err := cueToIR(field+"."+key, iter.Value())
			if err != nil {
				return nil, err
			}
			obj[key] = elem
		}
		return obj, nil
	case cue.NullKind:
		return nil, &LoadError{Field: field, Message: "null is not a valid parameter value", Pos: v.Pos()}
	default:
		return nil, &LoadError{Field: field, Message: fmt.Sprintf("value must be concrete, got %v", v.IncompleteKind()), Pos: v.Pos()}
	}
}

// formatCUEError converts the first CUE error to a LoadError with its
// source position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Field: "workload", Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Field: "workload", Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
