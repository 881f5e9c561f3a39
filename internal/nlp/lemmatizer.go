package nlp

import (
	"fmt"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// GolemLemmatizer looks words up in the golem English dictionary.
type GolemLemmatizer struct {
	golem *golem.Lemmatizer
}

// NewGolemLemmatizer loads the English dictionary. Loading takes a moment,
// so build one per process and share it.
func NewGolemLemmatizer() (*GolemLemmatizer, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("nlp: load english dictionary: %w", err)
	}
	return &GolemLemmatizer{golem: l}, nil
}

// Lemma returns the dictionary base form, or word itself when unknown.
func (g *GolemLemmatizer) Lemma(word string) string {
	if g == nil || g.golem == nil {
		return word
	}
	return g.golem.Lemma(word)
}

// NewEnglishTokenizer wires the tokenizer to the golem English dictionary.
func NewEnglishTokenizer() (*Tokenizer, error) {
	lemmatizer, err := NewGolemLemmatizer()
	if err != nil {
		return nil, err
	}
	return NewTokenizer(lemmatizer), nil
}
