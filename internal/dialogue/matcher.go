package dialogue

import (
	"strings"

	"github.com/wolfman30/vitalpoint-assistant/internal/nlp"
)

// Matcher decides whether a catalog phrase (doctor name, specialty, day,
// slot or keyword) occurs in an utterance.
type Matcher interface {
	Contains(u nlp.Utterance, phrase string) bool
}

// Normalizer reduces catalog text to the same form as Utterance.Normalized.
type Normalizer interface {
	Normalize(text string) string
}

// SubstringMatcher reports a match when the normalized phrase appears
// anywhere in the normalized utterance. A phrase that normalizes to nothing
// never matches.
type SubstringMatcher struct {
	normalizer Normalizer
}

// NewSubstringMatcher builds a matcher that normalizes phrases with n.
func NewSubstringMatcher(n Normalizer) *SubstringMatcher {
	return &SubstringMatcher{normalizer: n}
}

func (m *SubstringMatcher) Contains(u nlp.Utterance, phrase string) bool {
	needle := m.normalizer.Normalize(phrase)
	if needle == "" || u.Normalized == "" {
		return false
	}
	return strings.Contains(u.Normalized, needle)
}

// TokenMatcher only matches whole tokens, so "2:00 pm" does not match
// inside "12:00 pm".
type TokenMatcher struct {
	normalizer Normalizer
}

// NewTokenMatcher builds a matcher that normalizes phrases with n.
func NewTokenMatcher(n Normalizer) *TokenMatcher {
	return &TokenMatcher{normalizer: n}
}

func (m *TokenMatcher) Contains(u nlp.Utterance, phrase string) bool {
	needle := m.normalizer.Normalize(phrase)
	if needle == "" || u.Normalized == "" {
		return false
	}
	return strings.Contains(" "+u.Normalized+" ", " "+needle+" ")
}
