package graph

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// cypherRunner is the slice of the Bolt driver the store needs. Tests
// substitute a recording fake.
type cypherRunner interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
	Close(ctx context.Context) error
}

type boltRunner struct {
	driver neo4j.DriverWithContext
}

func (r *boltRunner) ExecuteQuery(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	return neo4j.ExecuteQuery(ctx, r.driver, query, params, neo4j.EagerResultTransformer)
}

func (r *boltRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Neo4jStore keeps the graph in a Neo4j (or other Bolt-compatible)
// server. The connection is dialed and verified once, here; callers
// that see an error fall back to the in-memory store for the rest of
// the session.
type Neo4jStore struct {
	runner cypherRunner
	log    *log.Logger
}

func ConnectNeo4j(ctx context.Context, uri, user, password string, logger *log.Logger) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}
	logger.Info("connected to graph database", "uri", uri)
	return &Neo4jStore{runner: &boltRunner{driver: driver}, log: logger}, nil
}

func (s *Neo4jStore) Reset(ctx context.Context) error {
	if _, err := s.runner.ExecuteQuery(ctx, resetQuery, nil); err != nil {
		return fmt.Errorf("failed to reset graph: %w", err)
	}
	return nil
}

func (s *Neo4jStore) AddTriple(ctx context.Context, t Triple) error {
	_, err := s.runner.ExecuteQuery(ctx, mergeTripleQuery, map[string]any{
		"subject":   t.Subject,
		"predicate": t.Predicate,
		"object":    t.Object,
		"sentence":  t.Sentence,
		"source":    t.Source,
	})
	if err != nil {
		return fmt.Errorf("failed to merge triple: %w", err)
	}
	return nil
}

func (s *Neo4jStore) OutEdges(ctx context.Context, entity string, limit int) ([]Triple, error) {
	return s.matchEdges(ctx, outEdgesQuery, entity, limit)
}

func (s *Neo4jStore) InEdges(ctx context.Context, entity string, limit int) ([]Triple, error) {
	return s.matchEdges(ctx, inEdgesQuery, entity, limit)
}

func (s *Neo4jStore) matchEdges(ctx context.Context, query, entity string, limit int) ([]Triple, error) {
	res, err := s.runner.ExecuteQuery(ctx, query, map[string]any{
		"name":  entity,
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to match edges: %w", err)
	}
	triples := make([]Triple, 0, len(res.Records))
	for _, rec := range res.Records {
		triples = append(triples, tripleFromRecord(rec))
	}
	return triples, nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.runner.Close(ctx)
}

func tripleFromRecord(rec *neo4j.Record) Triple {
	str := func(key string) string {
		v, _ := rec.Get(key)
		s, _ := v.(string)
		return s
	}
	return Triple{
		Subject:   str("subject"),
		Predicate: str("predicate"),
		Object:    str("object"),
		Sentence:  str("sentence"),
		Source:    str("source"),
	}
}
