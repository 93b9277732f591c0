package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratal/graphite/internal/config"
	"github.com/stratal/graphite/internal/feedback"
	"github.com/stratal/graphite/internal/graph"
	"github.com/stratal/graphite/internal/hybrid"
	"github.com/stratal/graphite/internal/kg"
	"github.com/stratal/graphite/internal/nlp"
	"github.com/stratal/graphite/internal/vector"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubParser struct {
	SentencesByText  map[string][]string
	ParsesBySentence map[string]nlp.Parse
	EntitiesByText   map[string][]string
	PhrasesByText    map[string][]string
}

func (p *stubParser) Sentences(text string) []string { return p.SentencesByText[text] }

func (p *stubParser) ParseSentence(sentence string) (nlp.Parse, bool) {
	parse, ok := p.ParsesBySentence[sentence]
	return parse, ok
}

func (p *stubParser) Entities(text string) []string    { return p.EntitiesByText[text] }
func (p *stubParser) NounPhrases(text string) []string { return p.PhrasesByText[text] }

type stubLLM struct {
	Response string
	Err      error
}

func (s *stubLLM) Generate(context.Context, string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}

func newTestServer(t *testing.T, parser nlp.Parser, client *stubLLM) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	ctx := context.Background()

	kgSvc := kg.New(ctx, parser, kg.Options{
		Connector: func(context.Context) (graph.Store, error) {
			return nil, errors.New("connection refused")
		},
	}, logger)
	t.Cleanup(func() { kgSvc.Close(ctx) })

	vectorSvc := vector.NewService(nil, client, 5, logger)

	fb, err := feedback.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	return &Server{
		KG:       kgSvc,
		Hybrid:   hybrid.New(kgSvc, vectorSvc, client, logger),
		Feedback: fb,
		cfg:      &config.Config{Paths: config.PathsConfig{DataDir: t.TempDir()}},
		log:      logger,
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubParser{}, &stubLLM{})
	w := doJSON(t, srv.SetupRouter(), http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, false, resp["graph_connected"])
}

func TestBuildAndGraphQuery(t *testing.T) {
	parser := &stubParser{
		SentencesByText: map[string][]string{
			"Marie Curie discovered polonium.": {"Marie Curie discovered polonium."},
		},
		ParsesBySentence: map[string]nlp.Parse{
			"Marie Curie discovered polonium.": {Root: "discover", Subject: "Marie Curie", Object: "polonium"},
		},
		EntitiesByText: map[string][]string{
			"Who is Marie Curie?": {"Marie Curie"},
		},
	}
	srv := newTestServer(t, parser, &stubLLM{})
	r := srv.SetupRouter()

	dir := srv.cfg.Paths.DataDir
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history.txt"), []byte("Marie Curie discovered polonium."), 0o644))

	w := doJSON(t, r, http.MethodPost, "/build", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var built map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &built))
	assert.Equal(t, "success", built["status"])
	assert.Equal(t, float64(2), built["nodes"])
	assert.Equal(t, float64(1), built["edges"])

	w = doJSON(t, r, http.MethodPost, "/graph/query", gin.H{"question": "Who is Marie Curie?"})
	require.Equal(t, http.StatusOK, w.Code)
	var answered struct {
		Answer string       `json:"answer"`
		Facts  []graph.Fact `json:"facts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &answered))
	assert.Contains(t, answered.Answer, "- marie curie discover polonium")
	require.Len(t, answered.Facts, 1)
	assert.Equal(t, "marie curie", answered.Facts[0].Entity)
	assert.Equal(t, graph.SubjectMatch, answered.Facts[0].Direction)
}

func TestBuildNoDocuments(t *testing.T) {
	srv := newTestServer(t, &stubParser{}, &stubLLM{})
	w := doJSON(t, srv.SetupRouter(), http.MethodPost, "/build", gin.H{"data_dir": t.TempDir()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGraphQueryRequiresQuestion(t *testing.T) {
	srv := newTestServer(t, &stubParser{}, &stubLLM{})
	w := doJSON(t, srv.SetupRouter(), http.MethodPost, "/graph/query", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryWithoutIndex(t *testing.T) {
	srv := newTestServer(t, &stubParser{}, &stubLLM{Response: "unused"})
	w := doJSON(t, srv.SetupRouter(), http.MethodPost, "/query", gin.H{"query": "Tell me about refunds."})

	require.Equal(t, http.StatusOK, w.Code)
	var res vector.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res.Answer, "knowledge base is not loaded")
	assert.Empty(t, res.Sources)
}

func TestFeedbackFlow(t *testing.T) {
	srv := newTestServer(t, &stubParser{}, &stubLLM{})
	r := srv.SetupRouter()

	w := doJSON(t, r, http.MethodPost, "/feedback", gin.H{
		"query":    "What is the refund policy?",
		"response": gin.H{"answer": "14 days", "sources": []gin.H{}},
		"rating":   4,
		"comment":  "good",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/feedback", gin.H{"query": "q", "rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/feedback/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var analytics feedback.Analytics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analytics))
	assert.Equal(t, 1, analytics.TotalQueries)
	assert.Equal(t, 4, analytics.TotalRatingSum)
}
