package graph

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	Queries     []string
	Params      []map[string]any
	ResultQueue []*neo4j.EagerResult
	Err         error
}

func (m *mockRunner) ExecuteQuery(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	m.Queries = append(m.Queries, query)
	m.Params = append(m.Params, params)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.ResultQueue) > 0 {
		res := m.ResultQueue[0]
		m.ResultQueue = m.ResultQueue[1:]
		return res, nil
	}
	return &neo4j.EagerResult{}, nil
}

func (m *mockRunner) Close(ctx context.Context) error {
	return nil
}

func newTestNeo4jStore(runner cypherRunner) *Neo4jStore {
	return &Neo4jStore{runner: runner, log: log.New(io.Discard)}
}

func edgeRecord(subject, predicate, object, sentence, source string) *neo4j.Record {
	return &neo4j.Record{
		Keys:   []string{"subject", "predicate", "object", "sentence", "source"},
		Values: []any{subject, predicate, object, sentence, source},
	}
}

func TestNeo4jAddTripleMergesNodesAndEdge(t *testing.T) {
	mock := &mockRunner{}
	store := newTestNeo4jStore(mock)

	err := store.AddTriple(context.Background(), Triple{
		Subject:   "refund policy",
		Predicate: "require",
		Object:    "receipt",
		Sentence:  "The refund policy requires a receipt.",
		Source:    "policy.txt",
	})
	require.NoError(t, err)

	require.Len(t, mock.Queries, 1)
	assert.Equal(t, mergeTripleQuery, mock.Queries[0])
	assert.Equal(t, "refund policy", mock.Params[0]["subject"])
	assert.Equal(t, "require", mock.Params[0]["predicate"])
	assert.Equal(t, "receipt", mock.Params[0]["object"])
	assert.Equal(t, "policy.txt", mock.Params[0]["source"])
}

func TestNeo4jOutEdgesDecodesRecords(t *testing.T) {
	mock := &mockRunner{
		ResultQueue: []*neo4j.EagerResult{
			{Records: []*neo4j.Record{
				edgeRecord("refund policy", "require", "receipt", "The refund policy requires a receipt.", "policy.txt"),
			}},
		},
	}
	store := newTestNeo4jStore(mock)

	triples, err := store.OutEdges(context.Background(), "refund policy", 5)
	require.NoError(t, err)

	require.Len(t, triples, 1)
	assert.Equal(t, "receipt", triples[0].Object)
	assert.Equal(t, "require", triples[0].Predicate)

	assert.Equal(t, outEdgesQuery, mock.Queries[0])
	assert.Equal(t, "refund policy", mock.Params[0]["name"])
	assert.Equal(t, 5, mock.Params[0]["limit"])
}

func TestNeo4jInEdgesMatchesIncoming(t *testing.T) {
	mock := &mockRunner{
		ResultQueue: []*neo4j.EagerResult{
			{Records: []*neo4j.Record{
				edgeRecord("marie curie", "discover", "polonium", "Marie Curie discovered polonium.", "chemistry.txt"),
			}},
		},
	}
	store := newTestNeo4jStore(mock)

	triples, err := store.InEdges(context.Background(), "polonium", 5)
	require.NoError(t, err)

	require.Len(t, triples, 1)
	assert.Equal(t, "marie curie", triples[0].Subject)
	assert.Equal(t, inEdgesQuery, mock.Queries[0])
	assert.Equal(t, "polonium", mock.Params[0]["name"])
}

func TestNeo4jReset(t *testing.T) {
	mock := &mockRunner{}
	store := newTestNeo4jStore(mock)

	require.NoError(t, store.Reset(context.Background()))
	require.Len(t, mock.Queries, 1)
	assert.Equal(t, resetQuery, mock.Queries[0])
}

func TestNeo4jErrorsAreWrapped(t *testing.T) {
	mock := &mockRunner{Err: errors.New("connection refused")}
	store := newTestNeo4jStore(mock)

	err := store.AddTriple(context.Background(), Triple{Subject: "a", Predicate: "link", Object: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to merge triple")

	_, err = store.OutEdges(context.Background(), "a", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to match edges")
}
