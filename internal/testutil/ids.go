package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns the same capture id on every call. Saving two
// captures through it exercises the archive's idempotent insert.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator returns a generator for id, or for
// "capture-default" when id is empty.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "capture-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequenceIDGenerator returns "<prefix>-0001", "<prefix>-0002", ...
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDGenerator returns a generator using prefix.
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next id in the sequence.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
