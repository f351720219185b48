package cli

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/fusionscope/internal/ir"
	"github.com/roach88/fusionscope/internal/render"
)

// SummaryResult is the JSON payload of the summary command.
type SummaryResult struct {
	Summary ir.FusionDebugSummary `json:"summary"`
	// Pending counts pending operations per kind name.
	Pending map[string]int `json:"pending_kinds"`
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <workload>",
		Short: "Show the fusion summary and optimization statistics",
		Long: `Replay a workload and report the fusion summary: active streams, pending
operations and the execution plans the runtime recorded, followed by the
optimization statistics over all pending operations.

Example:
  fusionscope summary workload.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(rootOpts, args[0], cmd)
		},
	}
}

func runSummary(opts *RootOptions, path string, cmd *cobra.Command) error {
	sess, err := opts.loadSession(path)
	if err != nil {
		return err
	}

	summary := sess.inspector.Summary()
	pending := allPending(sess)

	result := SummaryResult{Summary: summary, Pending: map[string]int{}}
	for _, op := range pending {
		result.Pending[op.Kind.KindName()]++
	}

	text := render.Summary(summary) + "\n" +
		render.OptimizationSummary(pending, summary.ExecutionPlanSummaries)
	return opts.formatter(cmd).Emit(result, text)
}

// allPending concatenates every stream's pending operations in ascending
// stream order.
func allPending(sess *session) []ir.OperationRecord {
	var out []ir.OperationRecord
	for _, s := range sortedSnapshots(sess.inspector.SnapshotAll()) {
		out = append(out, s.Operations...)
	}
	return slices.Clip(out)
}
