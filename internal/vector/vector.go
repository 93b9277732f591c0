// Package vector is the boundary to the external vector-search
// capability: top-K scored text chunks for a query string.
package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/stratal/graphite/internal/llm"
)

// Source is one retrieved context item with provenance and score. A
// nil score means the backend did not report one.
type Source struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Score    *float64       `json:"score"`
}

// Result is a synthesized answer plus the sources behind it.
type Result struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Retriever is the external index capability.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]Source, error)
}

const (
	noIndexAnswer = "Sorry, the knowledge base is not loaded. Please build the index first."
	emptyAnswer   = "Empty Response"
	answerHeader  = "Context information is below.\n---------------------\n"
	answerFooter  = "\n---------------------\nGiven the context information and not prior knowledge, answer the query.\nQuery: %s\nAnswer: "
)

// Service turns retrieved chunks into a prose answer. It never returns
// an error: every failure degrades to an explanatory answer with empty
// sources.
type Service struct {
	retriever Retriever
	llm       llm.LLMClient
	topK      int
	log       *log.Logger
}

func NewService(retriever Retriever, client llm.LLMClient, topK int, logger *log.Logger) *Service {
	if topK <= 0 {
		topK = 5
	}
	return &Service{retriever: retriever, llm: client, topK: topK, log: logger}
}

func (s *Service) Query(ctx context.Context, question string) Result {
	if s.retriever == nil {
		s.log.Error("no vector index available for querying")
		return Result{Answer: noIndexAnswer, Sources: []Source{}}
	}

	chunks, err := s.retriever.Search(ctx, question, s.topK)
	if err != nil {
		s.log.Error("vector search failed", "err", err)
		return Result{
			Answer:  fmt.Sprintf("An error occurred while processing your query: %v", err),
			Sources: []Source{},
		}
	}
	if len(chunks) == 0 {
		return Result{Answer: emptyAnswer, Sources: []Source{}}
	}

	answer, err := s.llm.Generate(ctx, buildPrompt(question, chunks))
	if err != nil {
		s.log.Error("answer synthesis failed", "err", err)
		return Result{
			Answer:  fmt.Sprintf("An error occurred while processing your query: %v", err),
			Sources: []Source{},
		}
	}

	return Result{Answer: answer, Sources: chunks}
}

func buildPrompt(question string, chunks []Source) string {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	return answerHeader + strings.Join(texts, "\n\n") + fmt.Sprintf(answerFooter, question)
}
