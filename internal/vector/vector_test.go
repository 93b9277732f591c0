package vector

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	Chunks []Source
	Err    error
	Query  string
	TopK   int
}

func (f *fakeRetriever) Search(ctx context.Context, query string, topK int) ([]Source, error) {
	f.Query = query
	f.TopK = topK
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Chunks, nil
}

type mockLLM struct {
	Response string
	Err      error
	Prompts  []string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func discard() *log.Logger { return log.New(io.Discard) }

func TestServiceQuerySynthesizesAnswer(t *testing.T) {
	score := 0.92
	retriever := &fakeRetriever{Chunks: []Source{
		{Text: "The refund policy requires a receipt.", Metadata: map[string]any{"source": "policy.txt"}, Score: &score},
	}}
	llm := &mockLLM{Response: "You need a receipt for refunds."}
	s := NewService(retriever, llm, 5, discard())

	res := s.Query(context.Background(), "What is the refund policy?")

	assert.Equal(t, "You need a receipt for refunds.", res.Answer)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "policy.txt", res.Sources[0].Metadata["source"])
	assert.Equal(t, 5, retriever.TopK)

	require.Len(t, llm.Prompts, 1)
	assert.Contains(t, llm.Prompts[0], "The refund policy requires a receipt.")
	assert.Contains(t, llm.Prompts[0], "What is the refund policy?")
}

func TestServiceQueryNoRetriever(t *testing.T) {
	s := NewService(nil, &mockLLM{}, 5, discard())

	res := s.Query(context.Background(), "anything")
	assert.Equal(t, noIndexAnswer, res.Answer)
	assert.Empty(t, res.Sources)
}

func TestServiceQueryAbsorbsSearchError(t *testing.T) {
	s := NewService(&fakeRetriever{Err: errors.New("index offline")}, &mockLLM{}, 5, discard())

	res := s.Query(context.Background(), "anything")
	assert.Contains(t, res.Answer, "An error occurred while processing your query")
	assert.Contains(t, res.Answer, "index offline")
	assert.Empty(t, res.Sources)
}

func TestServiceQueryAbsorbsLLMError(t *testing.T) {
	retriever := &fakeRetriever{Chunks: []Source{{Text: "context"}}}
	s := NewService(retriever, &mockLLM{Err: errors.New("quota exceeded")}, 5, discard())

	res := s.Query(context.Background(), "anything")
	assert.Contains(t, res.Answer, "An error occurred while processing your query")
	assert.Empty(t, res.Sources)
}

func TestServiceQueryEmptyIndex(t *testing.T) {
	s := NewService(&fakeRetriever{}, &mockLLM{}, 5, discard())

	res := s.Query(context.Background(), "anything")
	assert.Equal(t, emptyAnswer, res.Answer)
	assert.Empty(t, res.Sources)
}

func TestHTTPRetrieverSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [{"text": "chunk one", "metadata": {"source": "a.txt"}, "score": 0.5}]}`))
	}))
	defer srv.Close()

	r := NewHTTPRetriever(srv.URL)
	chunks, err := r.Search(context.Background(), "question", 5)
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, "chunk one", chunks[0].Text)
	require.NotNil(t, chunks[0].Score)
	assert.Equal(t, 0.5, *chunks[0].Score)
}

func TestHTTPRetrieverBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewHTTPRetriever(srv.URL)
	_, err := r.Search(context.Background(), "question", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
