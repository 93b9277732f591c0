package graph

import "context"

// Memory is the in-process backend: a directed multigraph held in maps.
// It serves as the fallback when no graph database is reachable and as
// the mirror the visualizer and snapshot store read. Duplicate triples
// are retained as parallel edges. Not safe for concurrent use; builds
// run single-writer.
type Memory struct {
	nodes map[string]struct{}
	order []string
	out   map[string][]Triple
	in    map[string][]Triple
	all   []Triple
}

func NewMemory() *Memory {
	m := &Memory{}
	m.clear()
	return m
}

func (m *Memory) clear() {
	m.nodes = make(map[string]struct{})
	m.order = nil
	m.out = make(map[string][]Triple)
	m.in = make(map[string][]Triple)
	m.all = nil
}

func (m *Memory) Reset(ctx context.Context) error {
	m.clear()
	return nil
}

func (m *Memory) AddTriple(ctx context.Context, t Triple) error {
	m.addNode(t.Subject)
	m.addNode(t.Object)
	m.out[t.Subject] = append(m.out[t.Subject], t)
	m.in[t.Object] = append(m.in[t.Object], t)
	m.all = append(m.all, t)
	return nil
}

func (m *Memory) addNode(name string) {
	if _, ok := m.nodes[name]; ok {
		return
	}
	m.nodes[name] = struct{}{}
	m.order = append(m.order, name)
}

func (m *Memory) OutEdges(ctx context.Context, entity string, limit int) ([]Triple, error) {
	return clip(m.out[entity], limit), nil
}

func (m *Memory) InEdges(ctx context.Context, entity string, limit int) ([]Triple, error) {
	return clip(m.in[entity], limit), nil
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}

// Nodes returns every entity name in first-seen order.
func (m *Memory) Nodes() []string {
	return append([]string(nil), m.order...)
}

// Triples returns every edge in insertion order.
func (m *Memory) Triples() []Triple {
	return append([]Triple(nil), m.all...)
}

func (m *Memory) NodeCount() int { return len(m.nodes) }

func (m *Memory) EdgeCount() int { return len(m.all) }

// clip copies the slice, truncating to limit. A negative limit keeps
// every edge.
func clip(ts []Triple, limit int) []Triple {
	if limit >= 0 && len(ts) > limit {
		ts = ts[:limit]
	}
	return append([]Triple(nil), ts...)
}
