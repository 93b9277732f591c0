package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPRetriever talks to a remote vector-search service speaking JSON:
// POST /search {"query": ..., "top_k": ...} returning {"results": [...]}.
type HTTPRetriever struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRetriever(baseURL string) *HTTPRetriever {
	return &HTTPRetriever{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Results []Source `json:"results"`
}

func (r *HTTPRetriever) Search(ctx context.Context, query string, topK int) ([]Source, error) {
	body, err := json.Marshal(searchRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach vector service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vector service returned status %d", resp.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode vector response: %w", err)
	}
	return out.Results, nil
}
