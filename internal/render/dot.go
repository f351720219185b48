package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/fusionscope/internal/depgraph"
	"github.com/roach88/fusionscope/internal/ir"
)

// DOTOptions controls the graph attributes of DOT output.
type DOTOptions struct {
	// Name is the graph identifier. Default "OperationGraph".
	Name string
	// RankDir is the layout direction (TB, LR, BT, RL). Default "TB".
	RankDir string
	// NodeShape is the default node shape. Default "box".
	NodeShape string
}

// DefaultDOTOptions returns the options DOT uses.
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{Name: "OperationGraph", RankDir: "TB", NodeShape: "box"}
}

func (o DOTOptions) withDefaults() DOTOptions {
	def := DefaultDOTOptions()
	if o.Name == "" {
		o.Name = def.Name
	}
	if o.RankDir == "" {
		o.RankDir = def.RankDir
	}
	if o.NodeShape == "" {
		o.NodeShape = def.NodeShape
	}
	return o
}

// DOT renders the snapshot as a GraphViz digraph with default options.
func DOT(s ir.StreamSnapshot) string {
	return DOTWith(s, DefaultDOTOptions())
}

// DOTWith renders the snapshot as a GraphViz digraph.
//
// Nodes are emitted in index order as op<i> labeled "Op[i]\n<KindName>".
// Edges run producer to consumer, one per distinct contributing tensor,
// ordered by consumer index and then input position.
func DOTWith(s ir.StreamSnapshot, opts DOTOptions) string {
	opts = opts.withDefaults()

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", dotID(opts.Name))
	fmt.Fprintf(&b, "  rankdir=%s;\n", dotID(opts.RankDir))
	fmt.Fprintf(&b, "  node [shape=%s];\n\n", dotID(opts.NodeShape))

	for i, op := range s.Operations {
		label := fmt.Sprintf("Op[%d]\\n%s", i, escapeDOT(op.Kind.KindName()))
		fmt.Fprintf(&b, "  op%d [label=\"%s\"];\n", i, label)
	}

	edges := depgraph.FromSnapshot(s).Edges()
	if len(edges) > 0 {
		b.WriteByte('\n')
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "  op%d -> op%d [label=\"%s\"];\n", e.From, e.To, escapeDOT(e.Tensor.String()))
	}

	b.WriteString("}\n")
	return b.String()
}

var plainDOTID = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var dotKeywords = map[string]bool{
	"node": true, "edge": true, "graph": true,
	"digraph": true, "subgraph": true, "strict": true,
}

// dotID returns s unchanged when it is a bare DOT identifier and as a
// quoted string otherwise.
func dotID(s string) string {
	if plainDOTID.MatchString(s) && !dotKeywords[strings.ToLower(s)] {
		return s
	}
	return `"` + escapeDOT(s) + `"`
}

// escapeDOT escapes backslashes, quotes and newlines for a quoted DOT string.
func escapeDOT(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return r.Replace(s)
}
