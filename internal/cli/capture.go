package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fusionscope/internal/ir"
	"github.com/roach88/fusionscope/internal/store"
)

// CaptureOptions holds flags for the capture command.
type CaptureOptions struct {
	ArchiveOptions
	Label string

	// IDs overrides the capture id generator (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	IDs store.IDGenerator
}

// CaptureResult is the JSON payload of the capture command.
type CaptureResult struct {
	store.CaptureInfo
	Inserted     bool              `json:"inserted"`
	Fingerprints map[string]string `json:"fingerprints"`
}

// NewCaptureCommand creates the capture command.
func NewCaptureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CaptureOptions{ArchiveOptions: ArchiveOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "capture <workload>",
		Short: "Archive snapshots of every pending stream",
		Long: `Replay a workload, snapshot every stream with pending operations and store
the snapshots with the fusion summary in a SQLite archive. Each snapshot
is stored with its content fingerprint.

Examples:
  fusionscope capture workload.yaml --db captures.db
  fusionscope capture workload.yaml --db captures.db --label before-fusion`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(opts, args[0], cmd)
		},
	}

	opts.addDBFlag(cmd)
	cmd.Flags().StringVar(&opts.Label, "label", "", "free-form capture label")

	return cmd
}

func runCapture(opts *CaptureOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	sess, err := opts.loadSession(path)
	if err != nil {
		return err
	}

	st, err := opts.openArchive(false)
	if err != nil {
		return err
	}
	defer opts.closeArchive(st)

	ids := opts.IDs
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	seq, err := st.NextSeq(ctx)
	if err != nil {
		return &ExitError{Code: ExitCommandError, ErrCode: ErrCodeStore, Message: "failed to allocate capture seq", Err: err}
	}

	snaps := sortedSnapshots(sess.inspector.SnapshotAll())
	c := store.Capture{ID: ids.Generate(), Seq: seq, Label: opts.Label, Snapshots: snaps}
	inserted, err := st.SaveCapture(ctx, c)
	if err != nil {
		return &ExitError{Code: ExitCommandError, ErrCode: ErrCodeStore, Message: "failed to save capture", Err: err}
	}
	if err := st.SaveSummary(ctx, c.ID, sess.inspector.Summary()); err != nil {
		return &ExitError{Code: ExitCommandError, ErrCode: ErrCodeStore, Message: "failed to save summary", Err: err}
	}
	opts.logger().Debug("capture saved", "id", c.ID, "seq", seq, "streams", len(snaps), "inserted", inserted)

	result := CaptureResult{
		CaptureInfo: store.CaptureInfo{
			ID:          c.ID,
			Seq:         seq,
			Label:       c.Label,
			ToolVersion: ir.ToolVersion,
			Streams:     []ir.StreamID{},
		},
		Inserted:     inserted,
		Fingerprints: make(map[string]string, len(snaps)),
	}
	for _, s := range snaps {
		fp, err := ir.SnapshotFingerprint(s)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to fingerprint snapshot", err)
		}
		result.Streams = append(result.Streams, s.Stream)
		result.OperationCount += s.Len()
		result.Fingerprints[s.Stream.String()] = fp
	}

	f := opts.formatter(cmd)
	return f.Emit(result, formatCapture(f, result, snaps))
}

func formatCapture(f *OutputFormatter, r CaptureResult, snaps []ir.StreamSnapshot) string {
	var b strings.Builder
	b.WriteString(f.Banner("Capture " + r.ID))
	fmt.Fprintf(&b, "Seq:        %d\n", r.Seq)
	if r.Label != "" {
		fmt.Fprintf(&b, "Label:      %s\n", r.Label)
	}
	fmt.Fprintf(&b, "Operations: %d\n", r.OperationCount)
	if len(snaps) == 0 {
		b.WriteString("Streams:    (none)\n")
	}
	for _, s := range snaps {
		fmt.Fprintf(&b, "  %s: %d operations, fingerprint %s\n", s.Stream, s.Len(), r.Fingerprints[s.Stream.String()])
	}
	return b.String()
}
