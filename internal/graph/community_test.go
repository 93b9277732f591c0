package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCommunityGraph(t *testing.T) *Memory {
	t.Helper()
	ctx := context.Background()
	m := NewMemory()
	for _, tr := range []Triple{
		{Subject: "a", Predicate: "likes", Object: "b"},
		{Subject: "b", Predicate: "likes", Object: "c"},
		{Subject: "x", Predicate: "knows", Object: "y"},
		{Subject: "z", Predicate: "references", Object: "z"},
	} {
		require.NoError(t, m.AddTriple(ctx, tr))
	}
	return m
}

func TestCommunitiesGroupConnectedEntities(t *testing.T) {
	m := seedCommunityGraph(t)

	got := Communities(m)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"x", "y"}}, got)
}

func TestCommunitiesSelfLoopStaysSingleton(t *testing.T) {
	m := seedCommunityGraph(t)

	for _, community := range Communities(m) {
		assert.NotContains(t, community, "z")
	}
}

func TestCommunitiesEmptyGraph(t *testing.T) {
	assert.Nil(t, Communities(NewMemory()))
}

func TestCommunitiesParallelEdgesOutweighSingleEdges(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	// A chain a=b-c=d with doubled outer edges splits at the weak b-c
	// link instead of collapsing into one community.
	for _, tr := range []Triple{
		{Subject: "a", Predicate: "mentions", Object: "b"},
		{Subject: "a", Predicate: "cites", Object: "b"},
		{Subject: "b", Predicate: "mentions", Object: "c"},
		{Subject: "c", Predicate: "mentions", Object: "d"},
		{Subject: "c", Predicate: "cites", Object: "d"},
	} {
		require.NoError(t, m.AddTriple(ctx, tr))
	}

	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, Communities(m))
}
