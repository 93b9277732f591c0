// Package hybrid coordinates knowledge-graph lookups with vector
// retrieval and fuses both into a single answer.
package hybrid

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/stratal/graphite/internal/graph"
	"github.com/stratal/graphite/internal/llm"
	"github.com/stratal/graphite/internal/vector"
)

const (
	maxPromptFacts    = 5
	maxPromptContexts = 3
	maxContextChars   = 200
)

const fusionInstruction = "Based on the above knowledge graph facts and additional context, please provide a comprehensive answer to the question."

const fusionFallbackAnswer = "Sorry, I couldn't generate a combined answer."

// factualPatterns match question shapes that tend to have a direct
// answer in the graph. Anything else goes straight to vector retrieval.
var factualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwhat\s+is\b`),
	regexp.MustCompile(`\bwho\s+is\b`),
	regexp.MustCompile(`\bwhen\s+is\b`),
	regexp.MustCompile(`\bwhere\s+is\b`),
	regexp.MustCompile(`\bhow\s+many\b`),
	regexp.MustCompile(`\bwhich\b`),
	regexp.MustCompile(`\bcan\s+i\b`),
	regexp.MustCompile(`\bdo\s+you\b`),
}

// GraphQuerier answers a question from the knowledge graph and returns
// the facts that back the answer.
type GraphQuerier interface {
	QueryGraph(ctx context.Context, question string) (answer string, facts []graph.Fact)
}

// Answerer produces a retrieval-augmented answer for a query.
type Answerer interface {
	Query(ctx context.Context, query string) vector.Result
}

// Coordinator runs vector retrieval for every query and, for factual
// questions with graph support, fuses both result sets with an LLM.
type Coordinator struct {
	graph  GraphQuerier
	vector Answerer
	llm    llm.LLMClient
	log    *log.Logger
}

func New(g GraphQuerier, v Answerer, client llm.LLMClient, logger *log.Logger) *Coordinator {
	return &Coordinator{graph: g, vector: v, llm: client, log: logger}
}

// Query answers a user query. Non-factual questions and factual
// questions without graph support return the vector result untouched,
// so callers see no difference when the graph has nothing to add.
func (c *Coordinator) Query(ctx context.Context, query string) vector.Result {
	vres := c.vector.Query(ctx, query)

	if !isFactual(query) {
		return vres
	}

	_, facts := c.graph.QueryGraph(ctx, query)
	if len(facts) == 0 {
		return vres
	}

	c.log.Info("fusing graph facts into answer", "query", query, "facts", len(facts))

	answer, err := c.llm.Generate(ctx, fusionPrompt(query, facts, vres.Sources))
	if err != nil {
		c.log.Error("failed to generate fused answer", "error", err)
		answer = vres.Answer
		if answer == "" {
			answer = fusionFallbackAnswer
		}
	}

	return vector.Result{
		Answer:  answer,
		Sources: combineSources(vres.Sources, facts),
	}
}

func isFactual(query string) bool {
	q := strings.ToLower(query)
	for _, p := range factualPatterns {
		if p.MatchString(q) {
			return true
		}
	}
	return false
}

func fusionPrompt(query string, facts []graph.Fact, contexts []vector.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", query)

	b.WriteString("Knowledge Graph Facts:\n")
	for _, f := range facts[:min(len(facts), maxPromptFacts)] {
		fmt.Fprintf(&b, "- %s %s %s\n", f.Subject, f.Predicate, f.Object)
	}

	b.WriteString("\nAdditional Context:\n")
	for _, s := range contexts[:min(len(contexts), maxPromptContexts)] {
		fmt.Fprintf(&b, "- %s\n", truncate(s.Text, maxContextChars))
	}

	b.WriteString("\n")
	b.WriteString(fusionInstruction)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// combineSources appends every graph fact to the vector sources so the
// caller can attribute each part of the fused answer. Graph entries
// carry no relevance score.
func combineSources(vectorSources []vector.Source, facts []graph.Fact) []vector.Source {
	combined := make([]vector.Source, 0, len(vectorSources)+len(facts))
	combined = append(combined, vectorSources...)
	for _, f := range facts {
		source := f.Source
		if source == "" {
			source = "knowledge_graph"
		}
		combined = append(combined, vector.Source{
			Text: f.Sentence,
			Metadata: map[string]any{
				"source":    source,
				"type":      "knowledge_graph",
				"subject":   f.Subject,
				"predicate": f.Predicate,
				"object":    f.Object,
			},
		})
	}
	return combined
}
