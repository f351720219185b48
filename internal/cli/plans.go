package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/fusionscope/internal/ir"
	"github.com/roach88/fusionscope/internal/render"
)

// NewPlansCommand creates the plans command.
func NewPlansCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plans <workload>",
		Short: "List the execution plans recorded while replaying a workload",
		Long: `Replay a workload and list every execution plan the runtime recorded:
operation count, triggers, the operation sequence and the strategy.

Example:
  fusionscope plans workload.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlans(rootOpts, args[0], cmd)
		},
	}
}

func runPlans(opts *RootOptions, path string, cmd *cobra.Command) error {
	sess, err := opts.loadSession(path)
	if err != nil {
		return err
	}

	plans := sess.inspector.Plans()
	stats := make([]ir.ExecutionPlanStats, len(plans))
	for i, p := range plans {
		stats[i] = p.Stats()
	}

	return opts.formatter(cmd).Emit(stats, render.Plans(plans))
}
