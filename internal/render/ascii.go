package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/fusionscope/internal/depgraph"
	"github.com/roach88/fusionscope/internal/ir"
)

// ASCII renders the pre-optimization report of one snapshot.
func ASCII(s ir.StreamSnapshot) string {
	var b strings.Builder
	b.WriteString("Pre-optimized Operation Graph:\n")
	b.WriteString("============================\n\n")

	if s.IsEmpty() {
		b.WriteString("No operations found.\n")
		return b.String()
	}

	g := depgraph.FromSnapshot(s)
	for i, op := range s.Operations {
		fmt.Fprintf(&b, "Op[%d]: %s\n", i, op.Kind.Describe())

		prov := g.Provenance(i)
		inputs := make([]string, len(op.Inputs))
		for k, in := range op.Inputs {
			inputs[k] = fmt.Sprintf("%s(%s)", in.ID, prov[k])
		}
		fmt.Fprintf(&b, "  Inputs:  %s\n", joinOrNone(inputs))

		outputs := make([]string, len(op.Outputs))
		for k, out := range op.Outputs {
			outputs[k] = out.String()
		}
		fmt.Fprintf(&b, "  Outputs: %s\n", joinOrNone(outputs))
		b.WriteByte('\n')
	}

	b.WriteString("Dependency Flow:\n")
	b.WriteString("================\n")
	if !g.HasDependencies() {
		b.WriteString("(no dependencies)\n")
		return b.String()
	}
	for i := range s.Operations {
		deps := g.Dependencies(i)
		if len(deps) == 0 {
			continue
		}
		fmt.Fprintf(&b, "Op[%d] depends on: %s\n", i, formatIndices(deps))
	}
	return b.String()
}

// ASCIIAll renders every snapshot in ascending stream order, each under a
// banner line.
func ASCIIAll(snapshots map[ir.StreamID]ir.StreamSnapshot) string {
	if len(snapshots) == 0 {
		return "No active streams.\n"
	}
	ids := make([]ir.StreamID, 0, len(snapshots))
	for id := range snapshots {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var b strings.Builder
	for n, id := range ids {
		if n > 0 {
			b.WriteByte('\n')
		}
		snap := snapshots[id]
		fmt.Fprintf(&b, "== %s (%d operations) ==\n", id, snap.Len())
		b.WriteString(ASCII(snap))
	}
	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, " ")
}

// formatIndices renders [0, 1, 2].
func formatIndices(idx []int) string {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
