package graph

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotSaveLoad(t *testing.T) {
	ctx := context.Background()
	logger := log.New(io.Discard)
	dir := t.TempDir()

	m := NewMemory()
	triples := []Triple{
		{Subject: "marie curie", Predicate: "discover", Object: "polonium", Sentence: "Marie Curie discovered polonium.", Source: "chemistry.txt"},
		{Subject: "marie curie", Predicate: "win", Object: "the nobel prize", Sentence: "Marie Curie won the Nobel Prize.", Source: "chemistry.txt"},
		{Subject: "polonium", Predicate: "be", Object: "an element", Sentence: "Polonium is an element.", Source: "chemistry.txt"},
	}
	for _, tr := range triples {
		require.NoError(t, m.AddTriple(ctx, tr))
	}

	snap, err := OpenSnapshot(dir, logger)
	require.NoError(t, err)
	require.NoError(t, snap.Save(m))
	require.NoError(t, snap.Close())

	snap, err = OpenSnapshot(dir, logger)
	require.NoError(t, err)
	defer snap.Close()

	restored := NewMemory()
	count, err := snap.Load(ctx, restored)
	require.NoError(t, err)

	assert.Equal(t, len(triples), count)
	assert.Equal(t, triples, restored.Triples())
	assert.Equal(t, m.Nodes(), restored.Nodes())
}

func TestSnapshotSaveReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	logger := log.New(io.Discard)

	snap, err := OpenSnapshot(t.TempDir(), logger)
	require.NoError(t, err)
	defer snap.Close()

	m := NewMemory()
	require.NoError(t, m.AddTriple(ctx, Triple{Subject: "a", Predicate: "link", Object: "b"}))
	require.NoError(t, m.AddTriple(ctx, Triple{Subject: "b", Predicate: "link", Object: "c"}))
	require.NoError(t, snap.Save(m))

	require.NoError(t, m.Reset(ctx))
	require.NoError(t, m.AddTriple(ctx, Triple{Subject: "x", Predicate: "link", Object: "y"}))
	require.NoError(t, snap.Save(m))

	restored := NewMemory()
	count, err := snap.Load(ctx, restored)
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"x", "y"}, restored.Nodes())
}
