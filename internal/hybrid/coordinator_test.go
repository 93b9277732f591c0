package hybrid

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratal/graphite/internal/graph"
	"github.com/stratal/graphite/internal/vector"
)

type fakeGraph struct {
	Answer string
	Facts  []graph.Fact
	Asked  []string
}

func (f *fakeGraph) QueryGraph(_ context.Context, question string) (string, []graph.Fact) {
	f.Asked = append(f.Asked, question)
	return f.Answer, f.Facts
}

type fakeAnswerer struct {
	Result vector.Result
	Asked  []string
}

func (f *fakeAnswerer) Query(_ context.Context, query string) vector.Result {
	f.Asked = append(f.Asked, query)
	return f.Result
}

type mockLLM struct {
	Response string
	Err      error
	Prompts  []string
}

func (m *mockLLM) Generate(_ context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func fact(subject, predicate, object, sentence, source string) graph.Fact {
	return graph.Fact{
		Triple: graph.Triple{
			Subject:   subject,
			Predicate: predicate,
			Object:    object,
			Sentence:  sentence,
			Source:    source,
		},
		Entity:    subject,
		Direction: graph.SubjectMatch,
	}
}

func newTestCoordinator(g *fakeGraph, v *fakeAnswerer, client *mockLLM) *Coordinator {
	return New(g, v, client, log.New(io.Discard))
}

func TestIsFactual(t *testing.T) {
	factual := []string{
		"What is the refund policy?",
		"who is the project lead",
		"When is the next release?",
		"Where is the main office?",
		"How many seats are included?",
		"Which plan includes support?",
		"Can I cancel at any time?",
		"Do you ship internationally?",
	}
	for _, q := range factual {
		assert.True(t, isFactual(q), "expected factual: %q", q)
	}

	conversational := []string{
		"Tell me about the company.",
		"Summarize the onboarding document.",
		"Whatever is in the manual, explain it.",
		"help me write an email",
	}
	for _, q := range conversational {
		assert.False(t, isFactual(q), "expected non-factual: %q", q)
	}
}

func TestQueryNonFactualReturnsVectorResultUntouched(t *testing.T) {
	score := 0.9
	vres := vector.Result{
		Answer: "The onboarding guide covers accounts and access.",
		Sources: []vector.Source{
			{Text: "Onboarding starts with account setup.", Metadata: map[string]any{"source": "guide.md"}, Score: &score},
		},
	}
	g := &fakeGraph{Facts: []graph.Fact{fact("a", "b", "c", "A b c.", "")}}
	v := &fakeAnswerer{Result: vres}
	client := &mockLLM{Response: "should not be used"}

	got := newTestCoordinator(g, v, client).Query(context.Background(), "Tell me about onboarding.")

	assert.Equal(t, vres, got)
	assert.Empty(t, g.Asked)
	assert.Empty(t, client.Prompts)
}

func TestQueryFactualWithoutFactsReturnsVectorResultUntouched(t *testing.T) {
	vres := vector.Result{
		Answer:  "Refunds are issued within 14 days.",
		Sources: []vector.Source{{Text: "Refunds take up to 14 days.", Metadata: map[string]any{"source": "policy.txt"}}},
	}
	g := &fakeGraph{Answer: "no facts"}
	v := &fakeAnswerer{Result: vres}
	client := &mockLLM{Response: "should not be used"}

	got := newTestCoordinator(g, v, client).Query(context.Background(), "What is the refund policy?")

	assert.Equal(t, vres, got)
	assert.Equal(t, []string{"What is the refund policy?"}, g.Asked)
	assert.Empty(t, client.Prompts)
}

func TestQueryFusesGraphFactsWithVectorContext(t *testing.T) {
	g := &fakeGraph{Facts: []graph.Fact{
		fact("marie curie", "discover", "polonium", "Marie Curie discovered polonium.", "history.txt"),
		fact("marie curie", "win", "the nobel prize", "Marie Curie won the Nobel Prize.", ""),
	}}
	v := &fakeAnswerer{Result: vector.Result{
		Answer:  "Marie Curie was a physicist.",
		Sources: []vector.Source{{Text: "Marie Curie pioneered research on radioactivity.", Metadata: map[string]any{"source": "bio.md"}}},
	}}
	client := &mockLLM{Response: "Marie Curie discovered polonium and won the Nobel Prize."}

	got := newTestCoordinator(g, v, client).Query(context.Background(), "Who is Marie Curie?")

	assert.Equal(t, "Marie Curie discovered polonium and won the Nobel Prize.", got.Answer)

	require.Len(t, client.Prompts, 1)
	prompt := client.Prompts[0]
	assert.Contains(t, prompt, "Question: Who is Marie Curie?")
	assert.Contains(t, prompt, "Knowledge Graph Facts:\n- marie curie discover polonium\n- marie curie win the nobel prize\n")
	assert.Contains(t, prompt, "Additional Context:\n- Marie Curie pioneered research on radioactivity.\n")
	assert.True(t, strings.HasSuffix(prompt, fusionInstruction))

	require.Len(t, got.Sources, 3)
	assert.Equal(t, "bio.md", got.Sources[0].Metadata["source"])

	first := got.Sources[1]
	assert.Equal(t, "Marie Curie discovered polonium.", first.Text)
	assert.Equal(t, "history.txt", first.Metadata["source"])
	assert.Equal(t, "knowledge_graph", first.Metadata["type"])
	assert.Equal(t, "marie curie", first.Metadata["subject"])
	assert.Equal(t, "discover", first.Metadata["predicate"])
	assert.Equal(t, "polonium", first.Metadata["object"])
	assert.Nil(t, first.Score)

	second := got.Sources[2]
	assert.Equal(t, "knowledge_graph", second.Metadata["source"])
}

func TestQueryPromptClipsFactsAndContexts(t *testing.T) {
	var facts []graph.Fact
	for _, object := range []string{"one", "two", "three", "four", "five", "six", "seven"} {
		facts = append(facts, fact("subject", "number", object, "Sentence "+object+".", ""))
	}
	var sources []vector.Source
	for _, text := range []string{"ctx one", "ctx two", "ctx three", "ctx four", "ctx five"} {
		sources = append(sources, vector.Source{Text: text})
	}

	g := &fakeGraph{Facts: facts}
	v := &fakeAnswerer{Result: vector.Result{Answer: "short answer", Sources: sources}}
	client := &mockLLM{Response: "fused"}

	got := newTestCoordinator(g, v, client).Query(context.Background(), "how many objects are there?")

	require.Len(t, client.Prompts, 1)
	prompt := client.Prompts[0]
	assert.Contains(t, prompt, "- subject number five\n")
	assert.NotContains(t, prompt, "subject number six")
	assert.Contains(t, prompt, "- ctx three\n")
	assert.NotContains(t, prompt, "ctx four")

	// Clipping applies to the prompt only; attribution keeps everything.
	assert.Len(t, got.Sources, len(sources)+len(facts))
}

func TestQueryPromptTruncatesLongContext(t *testing.T) {
	long := strings.Repeat("a", 250)
	short := strings.Repeat("b", 150)

	g := &fakeGraph{Facts: []graph.Fact{fact("s", "p", "o", "S p o.", "")}}
	v := &fakeAnswerer{Result: vector.Result{
		Answer:  "answer",
		Sources: []vector.Source{{Text: long}, {Text: short}},
	}}
	client := &mockLLM{Response: "fused"}

	newTestCoordinator(g, v, client).Query(context.Background(), "what is this?")

	require.Len(t, client.Prompts, 1)
	prompt := client.Prompts[0]
	assert.Contains(t, prompt, "- "+strings.Repeat("a", 200)+"...\n")
	assert.NotContains(t, prompt, strings.Repeat("a", 201))
	assert.Contains(t, prompt, "- "+short+"\n")
	assert.NotContains(t, prompt, short+"...")
}

func TestQueryLLMFailureFallsBackToVectorAnswer(t *testing.T) {
	g := &fakeGraph{Facts: []graph.Fact{fact("s", "p", "o", "S p o.", "")}}
	v := &fakeAnswerer{Result: vector.Result{Answer: "vector answer"}}
	client := &mockLLM{Err: errors.New("model unavailable")}

	got := newTestCoordinator(g, v, client).Query(context.Background(), "what is s?")

	assert.Equal(t, "vector answer", got.Answer)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "knowledge_graph", got.Sources[0].Metadata["type"])
}

func TestQueryLLMFailureWithEmptyVectorAnswer(t *testing.T) {
	g := &fakeGraph{Facts: []graph.Fact{fact("s", "p", "o", "S p o.", "")}}
	v := &fakeAnswerer{Result: vector.Result{}}
	client := &mockLLM{Err: errors.New("model unavailable")}

	got := newTestCoordinator(g, v, client).Query(context.Background(), "what is s?")

	assert.Equal(t, fusionFallbackAnswer, got.Answer)
}
