package nlp

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/jdkato/prose/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T) *ProseParser {
	t.Helper()
	p, err := NewProseParser(log.New(io.Discard))
	require.NoError(t, err)
	return p
}

func TestParseSentenceSimple(t *testing.T) {
	p := newTestParser(t)

	parse, ok := p.ParseSentence("Marie Curie discovered polonium.")
	require.True(t, ok)
	assert.Equal(t, "discover", parse.Root)
	assert.Equal(t, "Marie Curie", parse.Subject)
	assert.Equal(t, "polonium", parse.Object)
}

func TestParseSentencePassive(t *testing.T) {
	p := newTestParser(t)

	parse, ok := p.ParseSentence("Polonium was discovered by Marie Curie.")
	require.True(t, ok)
	assert.Equal(t, "discover", parse.Root)
	assert.Equal(t, "Polonium", parse.Subject)
	assert.Equal(t, "Marie Curie", parse.Object)
}

func TestParseSentenceAmbiguousCandidates(t *testing.T) {
	p := newTestParser(t)

	// Coordinated noun phrases merge into a single object phrase. This
	// pins the observed behavior for ambiguous sentences; which
	// candidate "should" win is not something the extractor promises.
	parse, ok := p.ParseSentence("The manager approved the refund and the clerk processed it.")
	require.True(t, ok)
	assert.Equal(t, "approve", parse.Root)
	assert.Equal(t, "The manager", parse.Subject)
	assert.Equal(t, "the refund the clerk", parse.Object)
}

func TestParseSentenceNoVerb(t *testing.T) {
	p := newTestParser(t)

	_, ok := p.ParseSentence("The red car.")
	assert.False(t, ok)
}

func TestSentencesSegmentation(t *testing.T) {
	p := newTestParser(t)

	sents := p.Sentences("Marie Curie discovered polonium. She won the Nobel Prize.")
	require.Len(t, sents, 2)
	assert.Contains(t, sents[0], "polonium")
	assert.Contains(t, sents[1], "Nobel")
}

func TestNounPhrasesOnQuestion(t *testing.T) {
	p := newTestParser(t)

	chunks := p.NounPhrases("What is the refund policy?")
	assert.Contains(t, chunks, "the refund policy")
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Hello world test", cleanText("Hello, world! (test)"))
	assert.Equal(t, "", cleanText("  ...  "))
}

func TestVerbGroup(t *testing.T) {
	toks := []prose.Token{
		{Text: "The", Tag: "DT"},
		{Text: "parcel", Tag: "NN"},
		{Text: "was", Tag: "VBD"},
		{Text: "quickly", Tag: "RB"},
		{Text: "delivered", Tag: "VBN"},
		{Text: "yesterday", Tag: "NN"},
	}
	start, end, root := verbGroup(toks)
	assert.Equal(t, 2, start)
	assert.Equal(t, 5, end)
	assert.Equal(t, 4, root)

	_, _, root = verbGroup([]prose.Token{{Text: "red", Tag: "JJ"}, {Text: "car", Tag: "NN"}})
	assert.Equal(t, -1, root)
}

func TestPhraseDropsPrepositions(t *testing.T) {
	toks := []prose.Token{
		{Text: "the", Tag: "DT"},
		{Text: "cat", Tag: "NN"},
		{Text: "in", Tag: "IN"},
		{Text: "the", Tag: "DT"},
		{Text: "hat", Tag: "NN"},
	}
	assert.Equal(t, "the cat the hat", phrase(toks))

	// A region with no nominal token yields no phrase.
	assert.Equal(t, "", phrase([]prose.Token{{Text: "very", Tag: "RB"}, {Text: "red", Tag: "JJ"}}))
}

func TestChunkSplitsOnNewDeterminer(t *testing.T) {
	toks := []prose.Token{
		{Text: "the", Tag: "DT"},
		{Text: "refund", Tag: "NN"},
		{Text: "policy", Tag: "NN"},
		{Text: "a", Tag: "DT"},
		{Text: "receipt", Tag: "NN"},
	}
	assert.Equal(t, []string{"the refund policy", "a receipt"}, chunk(toks))
}

func TestChunkPronounsStandAlone(t *testing.T) {
	toks := []prose.Token{
		{Text: "Can", Tag: "MD"},
		{Text: "I", Tag: "PRP"},
		{Text: "return", Tag: "VB"},
		{Text: "items", Tag: "NNS"},
	}
	assert.Equal(t, []string{"I", "items"}, chunk(toks))
}
