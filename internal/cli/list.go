package cli

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/roach88/fusionscope/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	ArchiveOptions
	Fingerprint string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{ArchiveOptions: ArchiveOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived captures",
		Long: `List the captures in an archive in capture order. With --fingerprint
only captures holding a snapshot with that fingerprint are listed.

Examples:
  fusionscope list --db captures.db
  fusionscope list --db captures.db --fingerprint 3f2a...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	opts.addDBFlag(cmd)
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only captures holding this snapshot fingerprint")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	st, err := opts.openArchive(true)
	if err != nil {
		return err
	}
	defer opts.closeArchive(st)

	infos, err := st.ListCaptures(ctx)
	if err != nil {
		return &ExitError{Code: ExitCommandError, ErrCode: ErrCodeStore, Message: "failed to list captures", Err: err}
	}

	if opts.Fingerprint != "" {
		ids, err := st.FindByFingerprint(ctx, opts.Fingerprint)
		if err != nil {
			return &ExitError{Code: ExitCommandError, ErrCode: ErrCodeStore, Message: "failed to search captures", Err: err}
		}
		keep := make(map[string]bool, len(ids))
		for _, id := range ids {
			keep[id] = true
		}
		filtered := []store.CaptureInfo{}
		for _, info := range infos {
			if keep[info.ID] {
				filtered = append(filtered, info)
			}
		}
		infos = filtered
	}

	f := opts.formatter(cmd)
	return f.Emit(infos, formatList(f, infos))
}

func formatList(f *OutputFormatter, infos []store.CaptureInfo) string {
	var b strings.Builder
	b.WriteString(f.Banner("Captures"))
	if len(infos) == 0 {
		b.WriteString("No captures found.\n")
		return b.String()
	}
	for _, info := range infos {
		fmt.Fprintf(&b, "[%d] %s  %s  %d streams, %d operations\n",
			info.Seq, info.ID, fitLabel(info.Label), len(info.Streams), info.OperationCount)
	}
	return b.String()
}

const labelWidth = 24

// fitLabel pads or truncates label to labelWidth display columns.
func fitLabel(label string) string {
	if label == "" {
		label = "-"
	}
	if runewidth.StringWidth(label) > labelWidth {
		label = runewidth.Truncate(label, labelWidth, "...")
	}
	return runewidth.FillRight(label, labelWidth)
}
