package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClockThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				clock.Next()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), clock.Current())
}

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "cap-1", NewFixedIDGenerator("cap-1").Generate())
	assert.Equal(t, "capture-default", NewFixedIDGenerator("").Generate())
}

func TestSequenceIDGenerator(t *testing.T) {
	gen := NewSequenceIDGenerator("cap")
	assert.Equal(t, "cap-0001", gen.Generate())
	assert.Equal(t, "cap-0002", gen.Generate())
}

func TestFixturesAreValid(t *testing.T) {
	for name, ops := range map[string]int{
		"chain":   len(ChainOps()),
		"diamond": len(DiamondOps()),
		"square":  len(SquareOps()),
	} {
		require.Positive(t, ops, name)
	}
	for _, op := range append(append(ChainOps(), DiamondOps()...), SquareOps()...) {
		assert.Empty(t, op.Validate())
	}
}
