// Package depgraph derives the producer/consumer graph of a snapshot from
// the tensor identifiers its operations reference.
//
// Nodes are operation indices. An edge p -> i exists when operation i reads
// a tensor whose most recent producer, scanning backward from i, is p. Every
// edge therefore satisfies p < i. Inputs with no producer in the sequence
// are classified external and contribute no edge.
package depgraph

import (
	"fmt"
	"slices"

	"github.com/roach88/fusionscope/internal/ir"
)

// Edge is one dependency through one tensor.
type Edge struct {
	From   int
	To     int
	Tensor ir.TensorID
}

// Graph is the dependency graph of an operation sequence. It is immutable
// after Build returns.
type Graph struct {
	deps       [][]int
	provenance [][]ir.Provenance
	consumers  [][]int
	edges      []Edge
}

type edgeKey struct {
	from, to int
	tensor   ir.TensorID
}

// Build scans ops in order. Each operation's inputs are resolved against the
// producers seen so far before its own outputs are registered, and a later
// producer of a tensor id shadows an earlier one.
func Build(ops []ir.OperationRecord) *Graph {
	n := len(ops)
	g := &Graph{
		deps:       make([][]int, n),
		provenance: make([][]ir.Provenance, n),
		consumers:  make([][]int, n),
	}

	producers := make(map[ir.TensorID]int)
	seenEdge := make(map[edgeKey]bool)

	for i, op := range ops {
		prov := make([]ir.Provenance, len(op.Inputs))
		deps := []int{}
		for k, in := range op.Inputs {
			p, ok := producers[in.ID]
			if !ok {
				prov[k] = ir.External()
				continue
			}
			prov[k] = ir.Produced(p)
			deps = append(deps, p)
			key := edgeKey{from: p, to: i, tensor: in.ID}
			if !seenEdge[key] {
				seenEdge[key] = true
				g.edges = append(g.edges, Edge{From: p, To: i, Tensor: in.ID})
			}
		}
		slices.Sort(deps)
		deps = slices.Compact(deps)
		g.deps[i] = deps
		g.provenance[i] = prov

		for _, p := range deps {
			g.consumers[p] = append(g.consumers[p], i)
		}
		for _, out := range op.Outputs {
			producers[out] = i
		}
	}

	for i := range g.consumers {
		if g.consumers[i] == nil {
			g.consumers[i] = []int{}
		}
	}
	return g
}

// FromSnapshot builds the graph of a snapshot's operations.
func FromSnapshot(s ir.StreamSnapshot) *Graph {
	return Build(s.Operations)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.deps)
}

func (g *Graph) check(i int) {
	if i < 0 || i >= len(g.deps) {
		panic(fmt.Sprintf("depgraph: operation index %d out of range [0, %d)", i, len(g.deps)))
	}
}

// Dependencies returns the ascending, duplicate-free producer indices of
// operation i. Panics if i is out of range.
func (g *Graph) Dependencies(i int) []int {
	g.check(i)
	return slices.Clone(g.deps[i])
}

// Provenance returns one classification per input of operation i, in input
// order. Panics if i is out of range.
func (g *Graph) Provenance(i int) []ir.Provenance {
	g.check(i)
	return slices.Clone(g.provenance[i])
}

// Consumers returns the ascending indices of operations that depend on i.
// Panics if i is out of range.
func (g *Graph) Consumers(i int) []int {
	g.check(i)
	return slices.Clone(g.consumers[i])
}

// Edges returns one edge per distinct (producer, consumer, tensor), ordered
// by consumer index and then by input position.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// EntryPoints returns the operations with no in-sequence producer.
func (g *Graph) EntryPoints() []int {
	var out []int
	for i, d := range g.deps {
		if len(d) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// Sinks returns the operations that no later operation consumes.
func (g *Graph) Sinks() []int {
	var out []int
	for i, c := range g.consumers {
		if len(c) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// HasDependencies reports whether any operation depends on another.
func (g *Graph) HasDependencies() bool {
	return len(g.edges) > 0
}

// DependencyMap returns every operation index mapped to its ascending
// dependency list. Entry points map to an empty, non-nil slice.
func (g *Graph) DependencyMap() map[int][]int {
	out := make(map[int][]int, len(g.deps))
	for i, d := range g.deps {
		out[i] = slices.Clone(d)
	}
	return out
}
