package kg

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratal/graphite/internal/graph"
	"github.com/stratal/graphite/internal/nlp"
)

type scriptedParser struct {
	SentencesByText  map[string][]string
	ParsesBySentence map[string]nlp.Parse
	EntitiesByText   map[string][]string
	PhrasesByText    map[string][]string
}

func (p *scriptedParser) Sentences(text string) []string { return p.SentencesByText[text] }

func (p *scriptedParser) ParseSentence(sentence string) (nlp.Parse, bool) {
	parse, ok := p.ParsesBySentence[sentence]
	return parse, ok
}

func (p *scriptedParser) Entities(text string) []string    { return p.EntitiesByText[text] }
func (p *scriptedParser) NounPhrases(text string) []string { return p.PhrasesByText[text] }

type capturingStore struct {
	ResetCalls int
	Added      []graph.Triple
	Out        map[string][]graph.Triple
	In         map[string][]graph.Triple
	AskedOut   []string
	AskedIn    []string
	Limits     []int
	CloseCalls int
}

func (c *capturingStore) Reset(context.Context) error {
	c.ResetCalls++
	return nil
}

func (c *capturingStore) AddTriple(_ context.Context, t graph.Triple) error {
	c.Added = append(c.Added, t)
	return nil
}

func (c *capturingStore) OutEdges(_ context.Context, entity string, limit int) ([]graph.Triple, error) {
	c.AskedOut = append(c.AskedOut, entity)
	c.Limits = append(c.Limits, limit)
	return c.Out[entity], nil
}

func (c *capturingStore) InEdges(_ context.Context, entity string, limit int) ([]graph.Triple, error) {
	c.AskedIn = append(c.AskedIn, entity)
	c.Limits = append(c.Limits, limit)
	return c.In[entity], nil
}

func (c *capturingStore) Close(context.Context) error {
	c.CloseCalls++
	return nil
}

func discard() *log.Logger { return log.New(io.Discard) }

func failingConnector(context.Context) (graph.Store, error) {
	return nil, errors.New("connection refused")
}

func storeConnector(store graph.Store) Connector {
	return func(context.Context) (graph.Store, error) { return store, nil }
}

// curieParser understands exactly one document and one question.
func curieParser() *scriptedParser {
	return &scriptedParser{
		SentencesByText: map[string][]string{
			"Marie Curie discovered polonium.": {"Marie Curie discovered polonium."},
		},
		ParsesBySentence: map[string]nlp.Parse{
			"Marie Curie discovered polonium.": {Root: "discover", Subject: "Marie Curie", Object: "polonium"},
		},
		EntitiesByText: map[string][]string{
			"Who is Marie Curie?": {"Marie Curie"},
		},
		PhrasesByText: map[string][]string{
			"Who is Marie Curie?": {"polonium"},
		},
	}
}

func writeDoc(t *testing.T, dir, name, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
}

func TestNewFallsBackWhenStoreUnavailable(t *testing.T) {
	svc := New(context.Background(), &scriptedParser{}, Options{Connector: failingConnector}, discard())
	assert.False(t, svc.Connected())
}

func TestBuildFromDirectoryNoDocuments(t *testing.T) {
	svc := New(context.Background(), &scriptedParser{}, Options{Connector: failingConnector}, discard())
	assert.False(t, svc.BuildFromDirectory(context.Background(), t.TempDir()))
}

func TestBuildExtractsStampsAndMirrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeDoc(t, dir, "history.txt", "Marie Curie discovered polonium.")

	external := &capturingStore{}
	svc := New(ctx, curieParser(), Options{Connector: storeConnector(external)}, discard())
	require.True(t, svc.Connected())

	require.True(t, svc.BuildFromDirectory(ctx, dir))

	assert.Equal(t, 1, external.ResetCalls)
	require.Len(t, external.Added, 1)
	assert.Equal(t, graph.Triple{
		Subject:   "marie curie",
		Predicate: "discover",
		Object:    "polonium",
		Sentence:  "Marie Curie discovered polonium.",
		Source:    "history.txt",
	}, external.Added[0])

	nodes, edges := svc.Stats()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)
}

func TestBuildReplacesPreviousGraph(t *testing.T) {
	ctx := context.Background()
	parser := curieParser()
	parser.SentencesByText["Ada Lovelace wrote the first program."] = []string{"Ada Lovelace wrote the first program."}
	parser.ParsesBySentence["Ada Lovelace wrote the first program."] = nlp.Parse{
		Root: "write", Subject: "Ada Lovelace", Object: "the first program",
	}

	first := t.TempDir()
	writeDoc(t, first, "history.txt", "Marie Curie discovered polonium.")
	second := t.TempDir()
	writeDoc(t, second, "computing.txt", "Ada Lovelace wrote the first program.")

	svc := New(ctx, parser, Options{Connector: failingConnector}, discard())
	require.True(t, svc.BuildFromDirectory(ctx, first))
	require.True(t, svc.BuildFromDirectory(ctx, second))

	nodes, edges := svc.Stats()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)

	answer, facts := svc.QueryGraph(ctx, "Who is Marie Curie?")
	assert.Equal(t, noFactsAnswer, answer)
	assert.Empty(t, facts)
}

func TestQueryGraphNoEntities(t *testing.T) {
	svc := New(context.Background(), &scriptedParser{}, Options{Connector: failingConnector}, discard())

	answer, facts := svc.QueryGraph(context.Background(), "hello there")
	assert.Equal(t, noEntitiesAnswer, answer)
	assert.Empty(t, facts)
}

func TestQueryGraphNoFacts(t *testing.T) {
	parser := &scriptedParser{
		EntitiesByText: map[string][]string{"Who is Ada?": {"Ada"}},
	}
	svc := New(context.Background(), parser, Options{Connector: failingConnector}, discard())

	answer, facts := svc.QueryGraph(context.Background(), "Who is Ada?")
	assert.Equal(t, noFactsAnswer, answer)
	assert.Empty(t, facts)
}

func TestQueryGraphAnswersFromMirror(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeDoc(t, dir, "history.txt", "Marie Curie discovered polonium.")

	svc := New(ctx, curieParser(), Options{Connector: failingConnector}, discard())
	require.True(t, svc.BuildFromDirectory(ctx, dir))

	answer, facts := svc.QueryGraph(ctx, "Who is Marie Curie?")

	// The triple matches both candidates, once per direction; facts are
	// reported flat, not deduplicated.
	assert.Equal(t, factsHeader+
		"- marie curie discover polonium\n"+
		"- marie curie discover polonium\n", answer)

	require.Len(t, facts, 2)
	assert.Equal(t, "marie curie", facts[0].Entity)
	assert.Equal(t, graph.SubjectMatch, facts[0].Direction)
	assert.Equal(t, "polonium", facts[1].Entity)
	assert.Equal(t, graph.ObjectMatch, facts[1].Direction)
	assert.Equal(t, "history.txt", facts[0].Source)
}

func TestQueryGraphPrefersExternalStore(t *testing.T) {
	ctx := context.Background()
	external := &capturingStore{
		Out: map[string][]graph.Triple{
			"ada lovelace": {{Subject: "ada lovelace", Predicate: "write", Object: "the first program"}},
		},
	}
	parser := &scriptedParser{
		EntitiesByText: map[string][]string{"Who is Ada Lovelace?": {"Ada Lovelace"}},
	}
	svc := New(ctx, parser, Options{Connector: storeConnector(external)}, discard())

	answer, facts := svc.QueryGraph(ctx, "Who is Ada Lovelace?")

	require.Len(t, facts, 1)
	assert.Contains(t, answer, "- ada lovelace write the first program\n")
	assert.Equal(t, []string{"ada lovelace"}, external.AskedOut)
	assert.Equal(t, []string{"ada lovelace"}, external.AskedIn)
	for _, limit := range external.Limits {
		assert.Equal(t, 5, limit)
	}

	// Nothing was built, so the mirror alone could not have answered.
	nodes, _ := svc.Stats()
	assert.Equal(t, 0, nodes)
}

func TestQueryGraphDeduplicatesCandidates(t *testing.T) {
	external := &capturingStore{}
	parser := &scriptedParser{
		EntitiesByText: map[string][]string{"q": {"Marie Curie"}},
		PhrasesByText:  map[string][]string{"q": {"marie curie", "Polonium"}},
	}
	svc := New(context.Background(), parser, Options{Connector: storeConnector(external)}, discard())

	svc.QueryGraph(context.Background(), "q")
	assert.Equal(t, []string{"marie curie", "polonium"}, external.AskedOut)
}

func TestQueryGraphEdgeLimitOption(t *testing.T) {
	external := &capturingStore{}
	parser := &scriptedParser{
		EntitiesByText: map[string][]string{"q": {"ada"}},
	}
	svc := New(context.Background(), parser, Options{Connector: storeConnector(external), EdgeLimit: 2}, discard())

	svc.QueryGraph(context.Background(), "q")
	require.NotEmpty(t, external.Limits)
	for _, limit := range external.Limits {
		assert.Equal(t, 2, limit)
	}
}

func TestSnapshotRestoresAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	writeDoc(t, dataDir, "history.txt", "Marie Curie discovered polonium.")
	snapshotDir := filepath.Join(t.TempDir(), "snapshot")

	first := New(ctx, curieParser(), Options{Connector: failingConnector, SnapshotDir: snapshotDir}, discard())
	require.True(t, first.BuildFromDirectory(ctx, dataDir))
	require.NoError(t, first.Close(ctx))

	second := New(ctx, curieParser(), Options{Connector: failingConnector, SnapshotDir: snapshotDir}, discard())
	defer second.Close(ctx)

	nodes, edges := second.Stats()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)

	answer, facts := second.QueryGraph(ctx, "Who is Marie Curie?")
	assert.Contains(t, answer, "- marie curie discover polonium\n")
	assert.Len(t, facts, 2)
}

func TestCloseReleasesExternalStore(t *testing.T) {
	external := &capturingStore{}
	svc := New(context.Background(), &scriptedParser{}, Options{Connector: storeConnector(external)}, discard())
	require.NoError(t, svc.Close(context.Background()))
	assert.Equal(t, 1, external.CloseCalls)
}
