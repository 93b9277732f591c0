// Package nlp wraps the natural-language machinery behind narrow
// interfaces so extraction and query policy stay independent of the
// concrete parser.
package nlp

// Parse is the shallow parse of one sentence: the main verb and the
// phrases on either side of it. Subject and Object are raw surface
// phrases; callers normalize them.
type Parse struct {
	Root    string // main verb, lemmatized
	Subject string // empty when no subject phrase was found
	Object  string // empty when no object phrase was found
}

// Parser turns raw text into sentences and shallow parses.
// Implementations load their model once at construction and fail there,
// never per call.
type Parser interface {
	// Sentences segments text into sentences.
	Sentences(text string) []string

	// ParseSentence parses one sentence. The second return is false
	// when the sentence has no verbal root, in which case the parse is
	// empty.
	ParseSentence(sentence string) (Parse, bool)

	// Entities runs named-entity recognition over text and returns the
	// entity surface forms in discovery order.
	Entities(text string) []string

	// NounPhrases chunks text into base noun phrases in discovery
	// order.
	NounPhrases(text string) []string
}
