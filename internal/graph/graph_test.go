package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edges(pairs ...string) []Edge {
	out := make([]Edge, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Edge{Source: pairs[i], Target: pairs[i+1], Kind: "import"})
	}
	return out
}

func TestDetectCyclesEmptyWithoutLoops(t *testing.T) {
	g := New([]string{"a", "b", "c"}, edges("a", "b", "b", "c"))
	assert.Empty(t, g.DetectCycles())

	assert.Empty(t, New([]string{"x", "y"}, nil).DetectCycles())
}

func TestDetectCyclesIndependentOfScanOrder(t *testing.T) {
	orders := [][]string{
		{"A", "B", "C"},
		{"B", "C", "A"},
		{"C", "A", "B"},
		{"C", "B", "A"},
	}
	for _, nodes := range orders {
		g := New(nodes, edges("A", "B", "B", "C", "C", "A"))
		cycles := g.DetectCycles()
		require.Len(t, cycles, 1, "order %v", nodes)
		assert.Equal(t, []string{"A", "B", "C"}, NormalizeCycle(cycles[0]))
		assert.Equal(t, cycles[0][0], cycles[0][len(cycles[0])-1])
	}
}

func TestDetectCyclesTwoNodeLoop(t *testing.T) {
	g := New([]string{"a", "b"}, edges("a", "b", "b", "a"))
	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "b", "a"}, cycles[0])
}

func TestDetectCyclesSelfLoopAndMultiple(t *testing.T) {
	g := New([]string{"a", "b", "c", "d"}, edges("a", "a", "b", "c", "c", "b", "c", "d"))
	cycles := g.DetectCycles()
	require.Len(t, cycles, 2)
	assert.Equal(t, "a", Signature(cycles[0]))
	assert.Equal(t, "b->c", Signature(cycles[1]))
}

func TestNormalizeRotations(t *testing.T) {
	rotations := [][]string{
		{"b", "c", "a", "b"},
		{"c", "a", "b", "c"},
		{"a", "b", "c"},
		{"a", "b", "c", "a"},
	}
	for _, r := range rotations {
		assert.Equal(t, "a->b->c", Signature(r), "%v", r)
	}
	assert.Equal(t, []string{}, NormalizeCycle(nil))
}

func TestWouldCreateCycle(t *testing.T) {
	g := New([]string{"a", "b", "c"}, edges("a", "b", "b", "c"))
	assert.True(t, g.WouldCreateCycle("c", "a"))
	assert.False(t, g.WouldCreateCycle("a", "c"))
	assert.True(t, g.WouldCreateCycle("d", "d"))

	// The receiver must be untouched.
	assert.Len(t, g.Edges, 2)
	assert.Len(t, g.Nodes, 3)
	assert.Empty(t, g.DetectCycles())
}

func TestFindAllPaths(t *testing.T) {
	g := New([]string{"a", "b", "c", "d"}, edges("a", "b", "a", "c", "b", "d", "c", "d", "b", "c"))
	want := [][]string{
		{"a", "b", "d"},
		{"a", "b", "c", "d"},
		{"a", "c", "d"},
	}
	first := g.FindAllPaths("a", "d")
	assert.Equal(t, want, first)
	assert.Equal(t, first, g.FindAllPaths("a", "d"))

	assert.Equal(t, [][]string{{"a"}}, g.FindAllPaths("a", "a"))
	assert.Empty(t, g.FindAllPaths("d", "a"))
	assert.Empty(t, g.FindAllPaths("a", "zz"))
}

func TestFindAllPathsWithCycle(t *testing.T) {
	g := New([]string{"a", "b", "c"}, edges("a", "b", "b", "a", "b", "c"))
	assert.Equal(t, [][]string{{"a", "b", "c"}}, g.FindAllPaths("a", "c"))
}

func TestStronglyConnected(t *testing.T) {
	g := New([]string{"a", "b", "c", "d", "e"}, edges("a", "b", "b", "a", "c", "d", "d", "e", "e", "c", "a", "c"))
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d", "e"}}, g.StronglyConnected())

	self := New([]string{"x"}, edges("x", "x"))
	assert.Equal(t, [][]string{{"x"}}, self.StronglyConnected())
}

func TestTopologicalOrder(t *testing.T) {
	g := New([]string{"a", "b", "c"}, edges("a", "b", "b", "c", "a", "c"))
	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)

	_, err = New([]string{"a", "b"}, edges("a", "b", "b", "a")).TopologicalOrder()
	assert.ErrorIs(t, err, ErrCyclic)
}
