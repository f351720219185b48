package cli

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fusionscope/internal/ir"
	"github.com/roach88/fusionscope/internal/render"
)

// Graph styles.
const (
	StyleASCII = "ascii"
	StyleDOT   = "dot"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Stream uint64
	Style  string
	Output string
}

// GraphResult is the JSON payload of the graph command.
type GraphResult struct {
	Streams []StreamView `json:"streams"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <workload>",
		Short: "Render the pending dependency graph of one or all streams",
		Long: `Replay a workload and render what is still pending.

Without --stream every stream with pending operations is rendered in
ascending stream order. With --stream only that stream is rendered; a
stream with nothing pending is an error.

Examples:
  fusionscope graph workload.yaml
  fusionscope graph workload.yaml --stream 1 --style dot -o graph.dot
  fusionscope graph workload.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Stream, "stream", 0, "render only this stream")
	cmd.Flags().StringVar(&opts.Style, "style", StyleASCII, "text style (ascii|dot)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runGraph(opts *GraphOptions, path string, cmd *cobra.Command) error {
	if err := validateStyle(opts.Style); err != nil {
		return err
	}
	sess, err := opts.loadSession(path)
	if err != nil {
		return err
	}

	var snaps []ir.StreamSnapshot
	if cmd.Flags().Changed("stream") {
		snap, err := requireSnapshot(sess, ir.StreamID(opts.Stream))
		if err != nil {
			return err
		}
		snaps = []ir.StreamSnapshot{snap}
	} else {
		snaps = sortedSnapshots(sess.inspector.SnapshotAll())
	}

	result := GraphResult{Streams: make([]StreamView, len(snaps))}
	for i, s := range snaps {
		result.Streams[i] = streamView(s)
	}

	var text string
	switch {
	case len(snaps) == 0:
		text = render.ASCIIAll(nil)
	case opts.Style == StyleDOT && len(snaps) == 1:
		text = render.DOTWith(snaps[0], opts.dotOptions(""))
	case opts.Style == StyleDOT:
		var b strings.Builder
		for i, s := range snaps {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(render.DOTWith(s, opts.dotOptions(fmt.Sprintf("_%d", uint64(s.Stream)))))
		}
		text = b.String()
	case len(snaps) == 1:
		text = render.ASCII(snaps[0])
	default:
		text = render.ASCIIAll(sess.inspector.SnapshotAll())
	}

	return opts.emitTo(cmd, opts.Output, result, text)
}

func (o *RootOptions) dotOptions(nameSuffix string) render.DOTOptions {
	opts := render.DOTOptions{
		Name:      o.Config.DOT.GraphName,
		RankDir:   o.Config.DOT.RankDir,
		NodeShape: o.Config.DOT.NodeShape,
	}
	if opts.Name == "" {
		opts.Name = render.DefaultDOTOptions().Name
	}
	opts.Name += nameSuffix
	return opts
}

// emitTo writes through the formatter, to path when set.
func (o *RootOptions) emitTo(cmd *cobra.Command, path string, data any, text string) error {
	f := o.formatter(cmd)
	if path == "" {
		return f.Emit(data, text)
	}

	var buf bytes.Buffer
	f.Writer = &buf
	f.Color = false
	if err := f.Emit(data, text); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &ExitError{Code: ExitCommandError, ErrCode: ErrCodeWriteFailed, Message: "failed to write output", Err: err}
	}
	f.VerboseLog("wrote %s", path)
	return nil
}

func validateStyle(style string) error {
	if style != StyleASCII && style != StyleDOT {
		return NewExitError(ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("invalid style %q: must be %s or %s", style, StyleASCII, StyleDOT))
	}
	return nil
}

// requireSnapshot returns the stream's snapshot or an ExitFailure error
// when it has nothing pending.
func requireSnapshot(sess *session, stream ir.StreamID) (ir.StreamSnapshot, error) {
	snap, ok := sess.inspector.Snapshot(stream)
	if !ok {
		return ir.StreamSnapshot{}, NewExitError(ExitFailure, ErrCodeStreamEmpty,
			fmt.Sprintf("%s has no pending operations", stream))
	}
	return snap, nil
}

func sortedSnapshots(all map[ir.StreamID]ir.StreamSnapshot) []ir.StreamSnapshot {
	out := make([]ir.StreamSnapshot, 0, len(all))
	for _, id := range slices.Sorted(maps.Keys(all)) {
		out = append(out, all[id])
	}
	return out
}
