package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fusionscope/internal/depgraph"
	"github.com/roach88/fusionscope/internal/inspect"
	"github.com/roach88/fusionscope/internal/ir"
)

// DepsOptions holds flags for the deps command.
type DepsOptions struct {
	*RootOptions
	Stream uint64
}

// DepsResult is the JSON payload of the deps command.
type DepsResult struct {
	Stream       ir.StreamID   `json:"stream"`
	Dependencies map[int][]int `json:"dependencies"`
	EntryPoints  []int         `json:"entry_points"`
	Sinks        []int         `json:"sinks"`
}

// NewDepsCommand creates the deps command.
func NewDepsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DepsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deps <workload>",
		Short: "List per-operation dependencies of one stream",
		Long: `Replay a workload and list, for every pending operation of one stream,
the earlier operations it depends on and the later operations that
consume it.

Example:
  fusionscope deps workload.yaml --stream 1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Stream, "stream", 0, "stream to inspect (required)")
	_ = cmd.MarkFlagRequired("stream")

	return cmd
}

func runDeps(opts *DepsOptions, path string, cmd *cobra.Command) error {
	sess, err := opts.loadSession(path)
	if err != nil {
		return err
	}
	snap, err := requireSnapshot(sess, ir.StreamID(opts.Stream))
	if err != nil {
		return err
	}

	g := depgraph.FromSnapshot(snap)
	result := DepsResult{
		Stream:       snap.Stream,
		Dependencies: inspect.DependencyMap(snap.Operations),
		EntryPoints:  nonNil(g.EntryPoints()),
		Sinks:        nonNil(g.Sinks()),
	}
	return opts.formatter(cmd).Emit(result, formatDeps(snap, g))
}

func formatDeps(snap ir.StreamSnapshot, g *depgraph.Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dependencies for %s (%d operations)\n", snap.Stream, snap.Len())
	for i, op := range snap.Operations {
		fmt.Fprintf(&b, "Op[%d] %s\n", i, op.Kind.Describe())
		fmt.Fprintf(&b, "  depends on:  %s\n", formatIndices(g.Dependencies(i)))
		fmt.Fprintf(&b, "  consumed by: %s\n", formatIndices(g.Consumers(i)))
	}
	return b.String()
}

func formatIndices(idx []int) string {
	if len(idx) == 0 {
		return "(none)"
	}
	parts := make([]string, len(idx))
	for i, n := range idx {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
