package viz

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratal/graphite/internal/graph"
)

func TestRenderWritesPNG(t *testing.T) {
	ctx := context.Background()
	m := graph.NewMemory()
	require.NoError(t, m.AddTriple(ctx, graph.Triple{
		Subject:   "marie curie",
		Predicate: "discover",
		Object:    "polonium",
		Sentence:  "Marie Curie discovered polonium.",
	}))

	path := filepath.Join(t.TempDir(), "visualizations", "knowledge_graph.png")
	err := Render(ctx, m, path, log.New(io.Discard))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
