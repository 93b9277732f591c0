package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	tr := Triple{
		Subject:   "marie curie",
		Predicate: "discover",
		Object:    "polonium",
		Sentence:  "Marie Curie discovered polonium.",
		Source:    "chemistry.txt",
	}
	require.NoError(t, m.AddTriple(ctx, tr))

	out, err := m.OutEdges(ctx, "marie curie", 5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, tr, out[0])

	in, err := m.InEdges(ctx, "polonium", 5)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, tr, in[0])
}

func TestMemoryUnknownEntity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	out, err := m.OutEdges(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, out)

	in, err := m.InEdges(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, in)
}

func TestMemoryDuplicateEdgesRetained(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	tr := Triple{Subject: "acme", Predicate: "sell", Object: "widgets"}
	require.NoError(t, m.AddTriple(ctx, tr))
	require.NoError(t, m.AddTriple(ctx, tr))

	out, err := m.OutEdges(ctx, "acme", 5)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	// Node creation stays idempotent even when edges repeat.
	assert.Equal(t, 2, m.NodeCount())
	assert.Equal(t, 2, m.EdgeCount())
}

func TestMemoryReset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.AddTriple(ctx, Triple{Subject: "a", Predicate: "link", Object: "b"}))
	require.NoError(t, m.Reset(ctx))

	out, err := m.OutEdges(ctx, "a", 5)
	require.NoError(t, err)
	assert.Empty(t, out)

	in, err := m.InEdges(ctx, "b", 5)
	require.NoError(t, err)
	assert.Empty(t, in)
	assert.Equal(t, 0, m.NodeCount())
	assert.Equal(t, 0, m.EdgeCount())
}

func TestMemoryLimit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 0; i < 7; i++ {
		require.NoError(t, m.AddTriple(ctx, Triple{
			Subject:   "hub",
			Predicate: "link",
			Object:    fmt.Sprintf("node-%d", i),
		}))
	}

	out, err := m.OutEdges(ctx, "hub", 5)
	require.NoError(t, err)
	assert.Len(t, out, 5)
	assert.Equal(t, "node-0", out[0].Object)

	all, err := m.OutEdges(ctx, "hub", -1)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestMemoryInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first := Triple{Subject: "a", Predicate: "link", Object: "b"}
	second := Triple{Subject: "c", Predicate: "link", Object: "a"}
	require.NoError(t, m.AddTriple(ctx, first))
	require.NoError(t, m.AddTriple(ctx, second))

	assert.Equal(t, []string{"a", "b", "c"}, m.Nodes())
	assert.Equal(t, []Triple{first, second}, m.Triples())
}
