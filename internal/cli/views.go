package cli

import (
	"github.com/roach88/fusionscope/internal/depgraph"
	"github.com/roach88/fusionscope/internal/ir"
)

// StreamView is the JSON form of one stream's pending graph.
type StreamView struct {
	Stream     ir.StreamID     `json:"stream"`
	Operations []OperationView `json:"operations"`
	Edges      []EdgeView      `json:"edges"`
}

// OperationView is one node of a StreamView.
type OperationView struct {
	Index        int         `json:"index"`
	Kind         string      `json:"kind"`
	Descriptor   string      `json:"descriptor"`
	Inputs       []InputView `json:"inputs"`
	Outputs      []string    `json:"outputs"`
	Dependencies []int       `json:"dependencies"`
	Consumers    []int       `json:"consumers"`
}

// InputView is one input tensor with its provenance.
type InputView struct {
	Tensor     string `json:"tensor"`
	Provenance string `json:"provenance"`
}

// EdgeView is one producer to consumer edge.
type EdgeView struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Tensor string `json:"tensor"`
}

func streamView(s ir.StreamSnapshot) StreamView {
	g := depgraph.FromSnapshot(s)
	view := StreamView{
		Stream:     s.Stream,
		Operations: make([]OperationView, s.Len()),
		Edges:      make([]EdgeView, 0, len(g.Edges())),
	}
	for i, op := range s.Operations {
		prov := g.Provenance(i)
		inputs := make([]InputView, len(op.Inputs))
		for j, in := range op.Inputs {
			inputs[j] = InputView{Tensor: in.ID.String(), Provenance: prov[j].String()}
		}
		outputs := make([]string, len(op.Outputs))
		for j, out := range op.Outputs {
			outputs[j] = out.String()
		}
		view.Operations[i] = OperationView{
			Index:        i,
			Kind:         op.Kind.KindName(),
			Descriptor:   op.Kind.Describe(),
			Inputs:       inputs,
			Outputs:      outputs,
			Dependencies: nonNil(g.Dependencies(i)),
			Consumers:    nonNil(g.Consumers(i)),
		}
	}
	for _, e := range g.Edges() {
		view.Edges = append(view.Edges, EdgeView{From: e.From, To: e.To, Tensor: e.Tensor.String()})
	}
	return view
}

func nonNil(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
