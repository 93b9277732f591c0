package nlp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/charmbracelet/log"
	"github.com/jdkato/prose/v2"
)

var (
	nonWordRE = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	spacesRE  = regexp.MustCompile(`\s+`)
)

// ProseParser implements Parser with prose's tagger and NER plus a
// dictionary lemmatizer. It approximates a dependency parse with
// part-of-speech patterns: the first verb group anchors the sentence,
// the region before it is the subject phrase and the region after it
// the object phrase, with function words and punctuation dropped from
// both.
type ProseParser struct {
	lemmas *golem.Lemmatizer
	log    *log.Logger
}

// NewProseParser loads the tagging and lemma models. A warm-up parse
// runs here so a missing or broken model fails construction instead of
// the first extraction.
func NewProseParser(logger *log.Logger) (*ProseParser, error) {
	lemmas, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("failed to load lemma dictionary: %w", err)
	}
	if _, err := prose.NewDocument("The parser warms up."); err != nil {
		return nil, fmt.Errorf("failed to initialize nlp model: %w", err)
	}
	logger.Info("loaded nlp models")
	return &ProseParser{lemmas: lemmas, log: logger}, nil
}

func (p *ProseParser) Sentences(text string) []string {
	doc, err := prose.NewDocument(text, prose.WithTagging(false), prose.WithExtraction(false))
	if err != nil {
		p.log.Warn("sentence segmentation failed", "err", err)
		return nil
	}
	sents := doc.Sentences()
	out := make([]string, 0, len(sents))
	for _, s := range sents {
		out = append(out, s.Text)
	}
	return out
}

func (p *ProseParser) ParseSentence(sentence string) (Parse, bool) {
	clean := cleanText(sentence)
	if clean == "" {
		return Parse{}, false
	}
	doc, err := prose.NewDocument(clean, prose.WithSegmentation(false), prose.WithExtraction(false))
	if err != nil {
		p.log.Warn("sentence parse failed", "err", err)
		return Parse{}, false
	}
	toks := doc.Tokens()

	start, end, root := verbGroup(toks)
	if root < 0 {
		return Parse{}, false
	}

	// The object region runs from the verb group to the next clause's
	// verb, so a coordinated second clause never bleeds in.
	objToks := toks[end:]
	for i, tok := range objToks {
		if isVerbTag(tok.Tag) || tok.Tag == "MD" {
			objToks = objToks[:i]
			break
		}
	}

	return Parse{
		Root:    p.lemmas.Lemma(strings.ToLower(toks[root].Text)),
		Subject: phrase(toks[:start]),
		Object:  phrase(objToks),
	}, true
}

func (p *ProseParser) Entities(text string) []string {
	doc, err := prose.NewDocument(text)
	if err != nil {
		p.log.Warn("entity recognition failed", "err", err)
		return nil
	}
	ents := doc.Entities()
	out := make([]string, 0, len(ents))
	for _, e := range ents {
		out = append(out, e.Text)
	}
	return out
}

func (p *ProseParser) NounPhrases(text string) []string {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false), prose.WithExtraction(false))
	if err != nil {
		p.log.Warn("noun chunking failed", "err", err)
		return nil
	}
	return chunk(doc.Tokens())
}

// cleanText mirrors the preprocessing applied before tagging: non-word
// characters become spaces and whitespace collapses.
func cleanText(s string) string {
	s = nonWordRE.ReplaceAllString(s, " ")
	s = spacesRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func isVerbTag(tag string) bool {
	return strings.HasPrefix(tag, "VB")
}

func isNounishTag(tag string) bool {
	return strings.HasPrefix(tag, "NN") || tag == "PRP" || tag == "CD"
}

// verbGroup locates the first verb group: a run of modal, adverb, and
// verb tags. It returns the group's bounds and the index of the last
// verb inside it, which serves as the root ("was discovered" roots at
// "discovered"). root is -1 when the sentence has no verb.
func verbGroup(toks []prose.Token) (start, end, root int) {
	start = -1
	for i, tok := range toks {
		if isVerbTag(tok.Tag) || tok.Tag == "MD" {
			start = i
			break
		}
	}
	if start < 0 {
		return -1, -1, -1
	}
	root = -1
	end = start
	for end < len(toks) {
		tag := toks[end].Tag
		if !isVerbTag(tag) && tag != "MD" && !strings.HasPrefix(tag, "RB") {
			break
		}
		if isVerbTag(tag) {
			root = end
		}
		end++
	}
	return start, end, root
}

// phrase joins a token region into a phrase, dropping prepositions,
// conjunctions, adverbs, and punctuation the way a subtree walk skips
// prep and punct arcs. Regions without a nominal token yield no phrase.
func phrase(toks []prose.Token) string {
	words := make([]string, 0, len(toks))
	nominal := false
	for _, tok := range toks {
		tag := tok.Tag
		if tag == "IN" || tag == "TO" || tag == "CC" || strings.HasPrefix(tag, "RB") || !isWordTag(tag) {
			continue
		}
		if isNounishTag(tag) {
			nominal = true
		}
		words = append(words, tok.Text)
	}
	if !nominal {
		return ""
	}
	return strings.Join(words, " ")
}

func isWordTag(tag string) bool {
	if tag == "" {
		return false
	}
	c := tag[0]
	return c >= 'A' && c <= 'Z'
}

// chunk collects base noun phrases: maximal runs of determiner,
// possessive, adjective, number, and noun tags that end in a noun, plus
// standalone pronouns.
func chunk(toks []prose.Token) []string {
	var phrases []string
	var run []string
	nouns := 0

	flush := func() {
		if len(run) > 0 && nouns > 0 {
			phrases = append(phrases, strings.Join(run, " "))
		}
		run = nil
		nouns = 0
	}

	for _, tok := range toks {
		tag := tok.Tag
		switch {
		case strings.HasPrefix(tag, "NN") || tag == "CD":
			run = append(run, tok.Text)
			nouns++
		case tag == "DT" || tag == "PRP$" || strings.HasPrefix(tag, "JJ"):
			if nouns > 0 {
				// A new determiner or adjective after a noun starts a
				// fresh phrase.
				flush()
			}
			run = append(run, tok.Text)
		case tag == "PRP":
			flush()
			phrases = append(phrases, tok.Text)
		default:
			flush()
		}
	}
	flush()
	return phrases
}
