//go:build integration

// These tests run against a real Neo4j (or Bolt-compatible) server and
// WIPE its contents. Point NEO4J_URI at a disposable instance.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratal/graphite/internal/graph"
	"github.com/stratal/graphite/internal/kg"
	"github.com/stratal/graphite/internal/nlp"
)

func graphURI(t *testing.T) string {
	t.Helper()
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("Skipping integration test: NEO4J_URI not set")
	}
	return uri
}

func TestNeo4jStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := graph.ConnectNeo4j(ctx, graphURI(t), os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"), log.New(os.Stderr))
	require.NoError(t, err)
	defer store.Close(ctx)

	require.NoError(t, store.Reset(ctx))

	first := graph.Triple{
		Subject:   "marie curie",
		Predicate: "discover",
		Object:    "polonium",
		Sentence:  "Marie Curie discovered polonium.",
		Source:    "history.txt",
	}
	second := graph.Triple{
		Subject:   "marie curie",
		Predicate: "win",
		Object:    "the nobel prize",
		Sentence:  "Marie Curie won the Nobel Prize.",
		Source:    "history.txt",
	}

	require.NoError(t, store.AddTriple(ctx, first))
	require.NoError(t, store.AddTriple(ctx, second))
	// An identical triple collapses into the existing relationship
	// server-side instead of duplicating it.
	require.NoError(t, store.AddTriple(ctx, first))

	out, err := store.OutEdges(ctx, "marie curie", 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []graph.Triple{first, second}, out)

	limited, err := store.OutEdges(ctx, "marie curie", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	in, err := store.InEdges(ctx, "polonium", 5)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, first, in[0])

	none, err := store.OutEdges(ctx, "unknown entity", 5)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, store.Reset(ctx))
	out, err = store.OutEdges(ctx, "marie curie", 5)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBuildAndQueryFlow(t *testing.T) {
	uri := graphURI(t)
	ctx := context.Background()
	logger := log.New(os.Stderr)

	parser, err := nlp.NewProseParser(logger)
	require.NoError(t, err)

	dir := t.TempDir()
	text := "Marie Curie discovered polonium. Pierre Curie shared the Nobel Prize."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history.txt"), []byte(text), 0o644))

	svc := kg.New(ctx, parser, kg.Options{
		Neo4jURI:      uri,
		Neo4jUser:     os.Getenv("NEO4J_USER"),
		Neo4jPassword: os.Getenv("NEO4J_PASSWORD"),
	}, logger)
	defer svc.Close(ctx)
	require.True(t, svc.Connected())

	require.True(t, svc.BuildFromDirectory(ctx, dir))

	answer, facts := svc.QueryGraph(ctx, "Who is Marie Curie?")
	require.NotEmpty(t, facts)
	assert.Contains(t, answer, "- marie curie discover polonium")
	assert.Equal(t, "history.txt", facts[0].Source)
}
