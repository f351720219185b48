package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/fusionscope/internal/ir"
)

// Plans renders the post-optimization report of materialized plans.
func Plans(plans []ir.ExecutionPlan) string {
	var b strings.Builder
	b.WriteString("Post-optimized Execution Plans:\n")
	b.WriteString("===============================\n\n")

	if len(plans) == 0 {
		b.WriteString("No execution plans found.\n")
		return b.String()
	}

	for _, plan := range plans {
		fmt.Fprintf(&b, "Plan[%d]:\n", plan.ID)
		fmt.Fprintf(&b, "  Operations: %d ops\n", len(plan.Operations))
		fmt.Fprintf(&b, "  Triggers: %d triggers\n", len(plan.Triggers))
		for _, trig := range plan.Triggers {
			fmt.Fprintf(&b, "    - %s\n", trig)
		}
		b.WriteString("  Operation sequence:\n")
		for j, op := range plan.Operations {
			fmt.Fprintf(&b, "    [%d] %s\n", j, op.Kind.Describe())
		}
		fmt.Fprintf(&b, "  Strategy: %s\n", plan.Strategy)
		writeStrategy(&b, plan.Strategy, "    ")
		if len(plan.Streams) > 0 {
			fmt.Fprintf(&b, "  Streams: %s\n", joinStreams(plan.Streams))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// OptimizationSummary compares pending operations against the plans built
// so far. The kind distribution is sorted by kind name.
func OptimizationSummary(pending []ir.OperationRecord, stats []ir.ExecutionPlanStats) string {
	var b strings.Builder
	b.WriteString("Optimization Summary:\n")
	b.WriteString("====================\n\n")

	fmt.Fprintf(&b, "Pre-optimization:  %d operations\n", len(pending))
	fmt.Fprintf(&b, "Post-optimization: %d execution plans\n", len(stats))

	planned := 0
	for _, s := range stats {
		planned += s.OperationCount
	}
	fmt.Fprintf(&b, "Total operations in plans: %d\n", planned)

	if len(pending) > 0 {
		ratio := float64(len(pending)-planned) / float64(len(pending)) * 100
		fmt.Fprintf(&b, "Operation reduction: %.1f%%\n", ratio)
	}
	b.WriteByte('\n')

	counts := make(map[string]int)
	for _, op := range pending {
		counts[op.Kind.KindName()]++
	}
	b.WriteString("Operation type distribution:\n")
	if len(counts) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, name := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(&b, "  %s: %d\n", name, counts[name])
	}
	return b.String()
}

// writeStrategy breaks a strategy down one part per line. Composed parts
// are numbered and nested.
func writeStrategy(b *strings.Builder, s ir.Strategy, indent string) {
	switch s.Kind {
	case ir.StrategyFused:
		fmt.Fprintf(b, "%sFused: %d ops, order %v\n", indent, len(s.Ordering), s.Ordering)
	case ir.StrategyOperations:
		fmt.Fprintf(b, "%sOperations: %d ops, order %v, not fused\n", indent, len(s.Ordering), s.Ordering)
	case ir.StrategyComposed:
		fmt.Fprintf(b, "%sComposed: %d parts\n", indent, len(s.Parts))
		for i, part := range s.Parts {
			fmt.Fprintf(b, "%s  Part[%d]:\n", indent, i)
			writeStrategy(b, part, indent+"    ")
		}
	default:
		fmt.Fprintf(b, "%sUnknown\n", indent)
	}
}

func joinStreams(ids []ir.StreamID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
