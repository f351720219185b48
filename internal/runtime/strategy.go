package runtime

import "github.com/roach88/fusionscope/internal/ir"

// fusable reports whether an operation can join a fused block. Element-wise
// and layout kinds can; module, custom, init and drop operations run alone.
func fusable(k ir.OpKind) bool {
	switch k.(type) {
	case ir.NumericOp, ir.FloatOp, ir.IntOp, ir.BoolOp, ir.BaseOp:
		return true
	default:
		return false
	}
}

// chooseStrategy splits ops into contiguous runs without reordering. A run
// of at least minFused fusable operations is fused; everything else runs
// individually. A single segment is returned bare, several are composed.
func chooseStrategy(ops []ir.OperationRecord, minFused int) ir.Strategy {
	var parts []ir.Strategy
	var pending []int

	flush := func() {
		if len(pending) > 0 {
			parts = append(parts, ir.Strategy{Kind: ir.StrategyOperations, Ordering: pending})
			pending = nil
		}
	}

	for i := 0; i < len(ops); {
		j := i
		for j < len(ops) && fusable(ops[j].Kind) {
			j++
		}
		if j-i >= minFused {
			flush()
			run := make([]int, 0, j-i)
			for k := i; k < j; k++ {
				run = append(run, k)
			}
			parts = append(parts, ir.Strategy{Kind: ir.StrategyFused, Ordering: run})
			i = j
			continue
		}
		if j == i {
			j = i + 1
		}
		for k := i; k < j; k++ {
			pending = append(pending, k)
		}
		i = j
	}
	flush()

	if len(parts) == 1 {
		return parts[0]
	}
	return ir.Strategy{Kind: ir.StrategyComposed, Parts: parts}
}
