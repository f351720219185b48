package workload

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/fusionscope/internal/ir"
)

// Target is the runtime surface a workload drives.
type Target interface {
	NewTensor() ir.TensorID
	Enqueue(stream ir.StreamID, rec ir.OperationRecord) error
	Execute(stream ir.StreamID, trigger ir.Trigger) (ir.ExecutionPlanStats, error)
}

// Result reports what Apply did.
type Result struct {
	// Tensors maps each symbolic name to its runtime tensor id.
	Tensors map[string]ir.TensorID
	// Enqueued counts operation steps.
	Enqueued int
	// Executed holds the stats of each execute step, in order.
	Executed []ir.ExecutionPlanStats
}

// Apply replays w into t. Steps run in order; the first failing step stops
// the replay and its error names the step index. A drop step reads its
// tensor, so the tensor is listed first in the step's inputs.
func Apply(t Target, w *Workload, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	res := &Result{Tensors: make(map[string]ir.TensorID)}
	bind := func(name string) ir.TensorID {
		if id, ok := res.Tensors[name]; ok {
			return id
		}
		id := t.NewTensor()
		res.Tensors[name] = id
		return id
	}

	for i, step := range w.Steps {
		if step.Execute != "" {
			stats, err := t.Execute(step.Stream, step.Execute.Trigger())
			if err != nil {
				return res, fmt.Errorf("steps[%d]: %w", i, err)
			}
			res.Executed = append(res.Executed, stats)
			continue
		}

		var drop ir.TensorID
		if step.Op.Kind == "Drop" {
			drop = bind(step.Op.Drop)
		}
		kind, err := ir.NewKind(step.Op.spec(drop))
		if err != nil {
			return res, fmt.Errorf("steps[%d]: %w", i, err)
		}
		var inputs, outputs []ir.TensorID
		if step.Op.Kind == "Drop" && !slices.Contains(step.Op.Inputs, step.Op.Drop) {
			inputs = append(inputs, drop)
		}
		for _, name := range step.Op.Inputs {
			inputs = append(inputs, bind(name))
		}
		for _, name := range step.Op.Outputs {
			outputs = append(outputs, bind(name))
		}
		if err := t.Enqueue(step.Stream, ir.Op(kind, inputs, outputs...)); err != nil {
			return res, fmt.Errorf("steps[%d]: %w", i, err)
		}
		res.Enqueued++
	}

	logger.Debug("workload applied",
		"workload", w.Name,
		"enqueued", res.Enqueued,
		"executed", len(res.Executed),
		"tensors", len(res.Tensors))
	return res, nil
}
