package extract

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratal/graphite/internal/nlp"
)

// fakeParser scripts sentence segmentation and parses so policy can be
// tested without a model.
type fakeParser struct {
	SentenceList []string
	Parses       map[string]nlp.Parse
}

func (f *fakeParser) Sentences(text string) []string {
	return f.SentenceList
}

func (f *fakeParser) ParseSentence(sentence string) (nlp.Parse, bool) {
	p, ok := f.Parses[sentence]
	return p, ok
}

func (f *fakeParser) Entities(text string) []string { return nil }

func (f *fakeParser) NounPhrases(text string) []string { return nil }

func newTestExtractor(parser nlp.Parser) *Extractor {
	return New(parser, log.New(io.Discard))
}

func TestExtractNoVerbalRoot(t *testing.T) {
	e := newTestExtractor(&fakeParser{
		SentenceList: []string{"The red car."},
		Parses:       map[string]nlp.Parse{},
	})

	assert.Empty(t, e.Extract("The red car."))
}

func TestExtractRequiresBothSides(t *testing.T) {
	e := newTestExtractor(&fakeParser{
		SentenceList: []string{"Subject only.", "Object only."},
		Parses: map[string]nlp.Parse{
			"Subject only.": {Root: "run", Subject: "the dog"},
			"Object only.":  {Root: "chase", Object: "the ball"},
		},
	})

	assert.Empty(t, e.Extract("Subject only. Object only."))
}

func TestExtractBuildsTriple(t *testing.T) {
	e := newTestExtractor(&fakeParser{
		SentenceList: []string{"Marie Curie discovered polonium."},
		Parses: map[string]nlp.Parse{
			"Marie Curie discovered polonium.": {
				Root:    "discover",
				Subject: "Marie Curie",
				Object:  "polonium",
			},
		},
	})

	triples := e.Extract("Marie Curie discovered polonium.")
	require.Len(t, triples, 1)

	assert.Equal(t, "marie curie", triples[0].Subject)
	assert.Equal(t, "discover", triples[0].Predicate)
	assert.Equal(t, "polonium", triples[0].Object)
	assert.Equal(t, "Marie Curie discovered polonium.", triples[0].Sentence)
	assert.Empty(t, triples[0].Source)
}

func TestExtractNormalizesEntities(t *testing.T) {
	e := newTestExtractor(&fakeParser{
		SentenceList: []string{"s"},
		Parses: map[string]nlp.Parse{
			"s": {Root: "require", Subject: "  The Refund Policy ", Object: " A Receipt "},
		},
	})

	triples := e.Extract("s")
	require.Len(t, triples, 1)
	assert.Equal(t, "the refund policy", triples[0].Subject)
	assert.Equal(t, "a receipt", triples[0].Object)
}

func TestExtractOneTriplePerSentence(t *testing.T) {
	e := newTestExtractor(&fakeParser{
		SentenceList: []string{"First.", "Second.", "Third has no verb."},
		Parses: map[string]nlp.Parse{
			"First.":  {Root: "link", Subject: "a", Object: "b"},
			"Second.": {Root: "link", Subject: "c", Object: "d"},
		},
	})

	triples := e.Extract("whole text")
	require.Len(t, triples, 2)
	assert.Equal(t, "a", triples[0].Subject)
	assert.Equal(t, "c", triples[1].Subject)
}
