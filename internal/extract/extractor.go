// Package extract turns raw document text into knowledge-graph triples.
package extract

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/stratal/graphite/internal/graph"
	"github.com/stratal/graphite/internal/nlp"
)

// Extractor applies the triple-extraction policy on top of a sentence
// parser: a sentence contributes a triple only when it has a verbal
// root with a subject phrase and an object phrase, and at most one
// triple per sentence.
type Extractor struct {
	parser nlp.Parser
	log    *log.Logger
}

func New(parser nlp.Parser, logger *log.Logger) *Extractor {
	return &Extractor{parser: parser, log: logger}
}

// Extract parses text into triples. Subjects and objects come back
// normalized; Source is left empty for the caller to stamp. Sentences
// missing a verbal root or either phrase are skipped silently, that is
// the contract, not an error.
func (e *Extractor) Extract(text string) []graph.Triple {
	var triples []graph.Triple
	for _, sentence := range e.parser.Sentences(text) {
		parse, ok := e.parser.ParseSentence(sentence)
		if !ok {
			e.log.Debug("skipping sentence without verbal root", "sentence", sentence)
			continue
		}
		subject := graph.NormalizeEntity(parse.Subject)
		object := graph.NormalizeEntity(parse.Object)
		if subject == "" || object == "" {
			e.log.Debug("skipping sentence without subject and object", "sentence", sentence)
			continue
		}
		triples = append(triples, graph.Triple{
			Subject:   subject,
			Predicate: parse.Root,
			Object:    object,
			Sentence:  strings.TrimSpace(sentence),
		})
	}
	return triples
}
