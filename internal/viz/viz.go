// Package viz renders the knowledge graph to a PNG for inspection. The
// image is informational output only; nothing reads it back.
package viz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/stratal/graphite/internal/graph"
)

// communityPalette cycles across detected communities (ColorBrewer
// Set3).
var communityPalette = []string{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072",
	"#80b1d3", "#fdb462", "#b3de69", "#fccde5",
}

// Render lays out the in-memory graph with a spring model and writes a
// PNG to path, creating parent directories as needed. Nodes are filled
// by detected community; the previous image is replaced wholesale.
func Render(ctx context.Context, m *graph.Memory, path string, logger *log.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create visualization directory: %w", err)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := gv.Graph()
	if err != nil {
		return fmt.Errorf("failed to create graph: %w", err)
	}
	defer g.Close()

	colors := make(map[string]string)
	for i, community := range graph.Communities(m) {
		for _, name := range community {
			colors[name] = communityPalette[i%len(communityPalette)]
		}
	}

	nodes := make(map[string]*graphviz.Node, m.NodeCount())
	for _, name := range m.Nodes() {
		n, err := g.CreateNodeByName(name)
		if err != nil {
			return fmt.Errorf("failed to create node: %w", err)
		}
		if color, ok := colors[name]; ok {
			n.SetStyle(graphviz.FilledNodeStyle)
			n.SetFillColor(color)
		}
		nodes[name] = n
	}

	for i, t := range m.Triples() {
		e, err := g.CreateEdgeByName(fmt.Sprintf("e%d", i), nodes[t.Subject], nodes[t.Object])
		if err != nil {
			return fmt.Errorf("failed to create edge: %w", err)
		}
		e.SetLabel(t.Predicate)
	}

	if err := gv.RenderFilename(ctx, g, graphviz.PNG, path); err != nil {
		return fmt.Errorf("failed to render visualization: %w", err)
	}

	logger.Info("saved graph visualization", "path", path, "nodes", m.NodeCount(), "edges", m.EdgeCount())
	return nil
}
