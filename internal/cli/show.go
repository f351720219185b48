package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fusionscope/internal/ir"
	"github.com/roach88/fusionscope/internal/render"
	"github.com/roach88/fusionscope/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	ArchiveOptions
	CaptureID string
	Style     string
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	ID      string                 `json:"id"`
	Seq     int64                  `json:"seq"`
	Label   string                 `json:"label"`
	Streams []StreamView           `json:"streams"`
	Summary *ir.FusionDebugSummary `json:"summary,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{ArchiveOptions: ArchiveOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render an archived capture",
		Long: `Read a capture from the archive, verify every snapshot against its stored
fingerprint and render it like the graph command does, followed by the
fusion summary stored with it.

Examples:
  fusionscope show --db captures.db --capture 0190f5c2-...
  fusionscope show --db captures.db --capture 0190f5c2-... --style dot`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	opts.addDBFlag(cmd)
	cmd.Flags().StringVar(&opts.CaptureID, "capture", "", "capture id (required)")
	_ = cmd.MarkFlagRequired("capture")
	cmd.Flags().StringVar(&opts.Style, "style", StyleASCII, "text style (ascii|dot)")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	if err := validateStyle(opts.Style); err != nil {
		return err
	}
	ctx := commandContext(cmd)

	st, err := opts.openArchive(true)
	if err != nil {
		return err
	}
	defer opts.closeArchive(st)

	c, err := st.ReadCapture(ctx, opts.CaptureID)
	if err != nil {
		var integrityErr *store.IntegrityError
		switch {
		case errors.Is(err, store.ErrNotFound):
			return &ExitError{Code: ExitFailure, ErrCode: ErrCodeNotFound, Message: "capture not found", Err: err}
		case errors.As(err, &integrityErr):
			return &ExitError{Code: ExitFailure, ErrCode: ErrCodeIntegrity, Message: "capture failed verification", Err: err}
		default:
			return &ExitError{Code: ExitCommandError, ErrCode: ErrCodeStore, Message: "failed to read capture", Err: err}
		}
	}
	summary, ok, err := st.ReadSummary(ctx, c.ID)
	if err != nil {
		return &ExitError{Code: ExitCommandError, ErrCode: ErrCodeStore, Message: "failed to read summary", Err: err}
	}

	result := ShowResult{ID: c.ID, Seq: c.Seq, Label: c.Label, Streams: make([]StreamView, len(c.Snapshots))}
	for i, s := range c.Snapshots {
		result.Streams[i] = streamView(s)
	}
	if ok {
		result.Summary = &summary
	}

	f := opts.formatter(cmd)
	return f.Emit(result, opts.formatShow(f, c, result.Summary))
}

func (o *ShowOptions) formatShow(f *OutputFormatter, c store.Capture, summary *ir.FusionDebugSummary) string {
	var b strings.Builder
	b.WriteString(f.Banner("Capture " + c.ID))
	fmt.Fprintf(&b, "Seq: %d\n", c.Seq)
	if c.Label != "" {
		fmt.Fprintf(&b, "Label: %s\n", c.Label)
	}
	b.WriteString("\n")

	if o.Style == StyleDOT {
		for i, s := range c.Snapshots {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(render.DOTWith(s, o.dotOptions(fmt.Sprintf("_%d", uint64(s.Stream)))))
		}
		if len(c.Snapshots) == 0 {
			b.WriteString(render.ASCIIAll(nil))
		}
	} else {
		all := make(map[ir.StreamID]ir.StreamSnapshot, len(c.Snapshots))
		for _, s := range c.Snapshots {
			all[s.Stream] = s
		}
		b.WriteString(render.ASCIIAll(all))
	}

	if summary != nil {
		b.WriteString("\n")
		b.WriteString(render.Summary(*summary))
	}
	return b.String()
}
