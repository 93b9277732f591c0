// Package kg builds the knowledge graph from documents and answers
// questions from it.
package kg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/stratal/graphite/internal/docs"
	"github.com/stratal/graphite/internal/extract"
	"github.com/stratal/graphite/internal/graph"
	"github.com/stratal/graphite/internal/nlp"
	"github.com/stratal/graphite/internal/viz"
)

const (
	noEntitiesAnswer = "I couldn't identify specific entities in your question to search in the knowledge graph."
	noFactsAnswer    = "I couldn't find specific information about your query in the knowledge graph."
	factsHeader      = "Based on the knowledge graph, I found these facts:\n\n"
)

const defaultEdgeLimit = 5

// Connector dials the external graph store. Injectable so tests run
// without a Neo4j server.
type Connector func(ctx context.Context) (graph.Store, error)

type Options struct {
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// SnapshotDir enables on-disk persistence of the in-memory mirror.
	SnapshotDir string

	// VizPath, when set, is where a PNG of the graph is written after
	// each build.
	VizPath string

	// EdgeLimit caps edges fetched per entity and direction during a
	// query. Zero means the default of 5.
	EdgeLimit int

	// Connector overrides the default Neo4j dial.
	Connector Connector
}

// Service owns the graph. Every triple is written to the in-memory
// mirror; when the external store is reachable it is written there too
// and queries prefer it. Storage failures degrade, they never abort a
// build or a query.
type Service struct {
	mirror    *graph.Memory
	external  graph.Store
	parser    nlp.Parser
	extractor *extract.Extractor
	snapshot  *graph.Snapshot
	vizPath   string
	edgeLimit int
	log       *log.Logger
}

// New dials the external store once. A failed dial is logged and the
// whole session runs from the in-memory mirror instead.
func New(ctx context.Context, parser nlp.Parser, opts Options, logger *log.Logger) *Service {
	s := &Service{
		mirror:    graph.NewMemory(),
		parser:    parser,
		extractor: extract.New(parser, logger),
		vizPath:   opts.VizPath,
		edgeLimit: opts.EdgeLimit,
		log:       logger,
	}
	if s.edgeLimit <= 0 {
		s.edgeLimit = defaultEdgeLimit
	}

	connect := opts.Connector
	if connect == nil && opts.Neo4jURI != "" {
		connect = func(ctx context.Context) (graph.Store, error) {
			return graph.ConnectNeo4j(ctx, opts.Neo4jURI, opts.Neo4jUser, opts.Neo4jPassword, logger)
		}
	}
	if connect != nil {
		store, err := connect(ctx)
		if err != nil {
			logger.Warn("graph database unavailable, falling back to in-memory storage", "err", err)
		} else {
			s.external = store
		}
	}

	if opts.SnapshotDir != "" {
		snap, err := graph.OpenSnapshot(opts.SnapshotDir, logger)
		if err != nil {
			logger.Warn("snapshot store unavailable, graph will not persist", "err", err)
		} else {
			s.snapshot = snap
			if n, err := snap.Load(ctx, s.mirror); err != nil {
				logger.Warn("failed to restore graph snapshot", "err", err)
			} else if n > 0 {
				logger.Info("restored graph snapshot", "triples", n)
			}
		}
	}

	return s
}

// Connected reports whether the external graph store is in use.
func (s *Service) Connected() bool { return s.external != nil }

// Stats reports the size of the in-memory mirror.
func (s *Service) Stats() (nodes, edges int) {
	return s.mirror.NodeCount(), s.mirror.EdgeCount()
}

// BuildFromDirectory wipes the graph and rebuilds it from every text
// document directly under dir. It reports whether any documents were
// processed.
func (s *Service) BuildFromDirectory(ctx context.Context, dir string) bool {
	s.reset(ctx)

	documents := docs.LoadDirectory(dir, s.log)
	if len(documents) == 0 {
		s.log.Warn("no documents to build from", "dir", dir)
		return false
	}

	total := 0
	for _, doc := range documents {
		n := s.ingest(ctx, doc.Text, doc.Source())
		s.log.Info("extracted triples", "source", doc.Source(), "count", n)
		total += n
	}
	s.log.Info("knowledge graph built",
		"documents", len(documents), "triples", total, "nodes", s.mirror.NodeCount())

	if s.vizPath != "" && s.mirror.NodeCount() > 0 {
		if err := viz.Render(ctx, s.mirror, s.vizPath, s.log); err != nil {
			s.log.Error("failed to render graph visualization", "err", err)
		}
	}
	if s.snapshot != nil {
		if err := s.snapshot.Save(s.mirror); err != nil {
			s.log.Error("failed to save graph snapshot", "err", err)
		}
	}
	return true
}

// QueryGraph answers a question strictly from stored facts. No LLM is
// involved; the same graph always yields the same answer.
func (s *Service) QueryGraph(ctx context.Context, question string) (string, []graph.Fact) {
	entities := s.entityCandidates(question)
	if len(entities) == 0 {
		return noEntitiesAnswer, nil
	}

	store := s.readStore()
	var facts []graph.Fact
	for _, entity := range entities {
		out, err := store.OutEdges(ctx, entity, s.edgeLimit)
		if err != nil {
			s.log.Error("failed to query outgoing edges", "entity", entity, "err", err)
		}
		for _, t := range out {
			facts = append(facts, graph.Fact{Triple: t, Entity: entity, Direction: graph.SubjectMatch})
		}

		in, err := store.InEdges(ctx, entity, s.edgeLimit)
		if err != nil {
			s.log.Error("failed to query incoming edges", "entity", entity, "err", err)
		}
		for _, t := range in {
			facts = append(facts, graph.Fact{Triple: t, Entity: entity, Direction: graph.ObjectMatch})
		}
	}
	if len(facts) == 0 {
		return noFactsAnswer, nil
	}

	var b strings.Builder
	b.WriteString(factsHeader)
	for _, f := range facts {
		fmt.Fprintf(&b, "- %s %s %s\n", f.Subject, f.Predicate, f.Object)
	}
	return b.String(), facts
}

// Close releases the external store and the snapshot database.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	if s.external != nil {
		if err := s.external.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.snapshot != nil {
		if err := s.snapshot.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) reset(ctx context.Context) {
	if err := s.mirror.Reset(ctx); err != nil {
		s.log.Error("failed to reset memory graph", "err", err)
	}
	if s.external != nil {
		if err := s.external.Reset(ctx); err != nil {
			s.log.Error("failed to reset graph database", "err", err)
		}
	}
}

func (s *Service) ingest(ctx context.Context, text, source string) int {
	triples := s.extractor.Extract(text)
	for i := range triples {
		triples[i].Source = source
		s.addTriple(ctx, triples[i])
	}
	return len(triples)
}

func (s *Service) addTriple(ctx context.Context, t graph.Triple) {
	if err := s.mirror.AddTriple(ctx, t); err != nil {
		s.log.Error("failed to store triple in memory graph", "err", err)
	}
	if s.external != nil {
		if err := s.external.AddTriple(ctx, t); err != nil {
			s.log.Error("failed to store triple in graph database", "subject", t.Subject, "err", err)
		}
	}
}

// entityCandidates collects named entities first, then noun phrases,
// normalized and deduplicated in discovery order.
func (s *Service) entityCandidates(question string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		name = graph.NormalizeEntity(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, e := range s.parser.Entities(question) {
		add(e)
	}
	for _, np := range s.parser.NounPhrases(question) {
		add(np)
	}
	return out
}

func (s *Service) readStore() graph.Store {
	if s.external != nil {
		return s.external
	}
	return s.mirror
}
