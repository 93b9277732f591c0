package graph

import "strings"

// Triple is one extracted fact: a directed edge from Subject to Object
// labeled with the Predicate verb lemma. Sentence preserves the sentence
// the fact came from, Source the originating document.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	Sentence  string `json:"sentence"`
	Source    string `json:"source"`
}

// Direction marks which side of a triple matched a queried entity.
type Direction string

const (
	SubjectMatch Direction = "subject"
	ObjectMatch  Direction = "object"
)

// Fact is a triple returned by a graph lookup, tagged with the entity
// that matched it and on which side the match happened.
type Fact struct {
	Triple
	Entity    string    `json:"entity"`
	Direction Direction `json:"direction"`
}

// NormalizeEntity maps an entity surface form to its node key: trimmed
// and lower-cased. There is no alias resolution, so distinct surface
// forms of the same real-world entity remain distinct nodes.
func NormalizeEntity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
