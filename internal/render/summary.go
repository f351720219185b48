package render

import (
	"fmt"
	"strings"

	"github.com/roach88/fusionscope/internal/ir"
)

// Summary renders a FusionDebugSummary.
func Summary(s ir.FusionDebugSummary) string {
	var b strings.Builder
	b.WriteString("Fusion Debug Summary:\n")
	b.WriteString("=====================\n\n")

	fmt.Fprintf(&b, "Active streams:     %d\n", s.StreamCount)
	fmt.Fprintf(&b, "Pending operations: %d\n", s.TotalOperations)
	fmt.Fprintf(&b, "Execution plans:    %d\n", s.ExecutionPlanCount)

	for _, p := range s.ExecutionPlanSummaries {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "Plan[%d]: %d operations, %d triggers\n", p.ID, p.OperationCount, p.TriggerCount)
		if len(p.Triggers) > 0 {
			fmt.Fprintf(&b, "  Triggers: %s\n", strings.Join(p.Triggers, ", "))
		}
		if len(p.OperationKinds) > 0 {
			fmt.Fprintf(&b, "  Kinds:    %s\n", strings.Join(p.OperationKinds, " -> "))
		}
		if p.Strategy != "" {
			fmt.Fprintf(&b, "  Strategy: %s\n", p.Strategy)
		}
		if len(p.Streams) > 0 {
			fmt.Fprintf(&b, "  Streams:  %s\n", joinStreams(p.Streams))
		}
	}
	return b.String()
}
