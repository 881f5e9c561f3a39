// Package nlp turns free-text chat input into the normalized forms the
// dialogue engine matches against.
package nlp

import (
	"strings"
	"unicode"
)

// Lemmatizer reduces a lower-cased word to its base form.
type Lemmatizer interface {
	Lemma(word string) string
}

// Utterance is one analyzed chat message.
type Utterance struct {
	// Surface is the lower-cased input with whitespace collapsed.
	Surface string
	// Tokens are the significant lemmas in input order.
	Tokens []string
	// Normalized is Tokens joined by single spaces.
	Normalized string
}

// Empty reports whether no significant token survived analysis.
func (u Utterance) Empty() bool {
	return len(u.Tokens) == 0
}

// Tokenizer lower-cases, splits, drops stopwords and punctuation, and
// lemmatizes. It is stateless and safe for concurrent use.
type Tokenizer struct {
	lemmatizer Lemmatizer
	stopwords  map[string]struct{}
}

// NewTokenizer builds a tokenizer around the given lemmatizer. A nil
// lemmatizer leaves tokens as they are.
func NewTokenizer(lemmatizer Lemmatizer) *Tokenizer {
	if lemmatizer == nil {
		lemmatizer = identityLemmatizer{}
	}
	return &Tokenizer{
		lemmatizer: lemmatizer,
		stopwords:  englishStopwords,
	}
}

// Tokenize returns the significant lemmas of text.
func (t *Tokenizer) Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		word := strings.TrimFunc(field, isEdgePunct)
		word = strings.TrimSuffix(word, "'s")
		if word == "" || !hasAlnum(word) {
			continue
		}
		if isMeridiem(word) && len(tokens) > 0 && isClockTime(tokens[len(tokens)-1]) {
			tokens = append(tokens, word)
			continue
		}
		if t.isStopword(word) {
			continue
		}
		if isPlainWord(word) {
			word = t.lemmatizer.Lemma(word)
			// A lemma can land on a stopword ("gets" -> "get").
			if t.isStopword(word) {
				continue
			}
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func (t *Tokenizer) isStopword(word string) bool {
	_, stop := t.stopwords[word]
	return stop
}

// Normalize returns the tokens of text joined by single spaces.
func (t *Tokenizer) Normalize(text string) string {
	return strings.Join(t.Tokenize(text), " ")
}

// Analyze produces every form of text the engine needs for one turn.
func (t *Tokenizer) Analyze(text string) Utterance {
	tokens := t.Tokenize(text)
	return Utterance{
		Surface:    strings.Join(strings.Fields(strings.ToLower(text)), " "),
		Tokens:     tokens,
		Normalized: strings.Join(tokens, " "),
	}
}

func isSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case ',', ';', '!', '?', '(', ')', '[', ']', '{', '}', '"', '/':
		return true
	}
	return false
}

// isEdgePunct trims wrapping punctuation while keeping the inner characters
// of times ("2:00") and email addresses.
func isEdgePunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func hasAlnum(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// isPlainWord limits lemmatization to alphabetic words; emails, times and
// codes pass through untouched.
func isPlainWord(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isMeridiem(word string) bool {
	return word == "am" || word == "pm"
}

// isClockTime matches "9:00" style tokens.
func isClockTime(word string) bool {
	if !strings.Contains(word, ":") {
		return false
	}
	return strings.ContainsAny(word, "0123456789")
}

type identityLemmatizer struct{}

func (identityLemmatizer) Lemma(word string) string { return word }
