// Package moderation holds keyword detection on chat text.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// DenylistKeywords are the institution names the assistant refuses to discuss.
var DenylistKeywords = []string{"清华", "北大", "复旦", "交大", "浙大", "电子科大", "川大", "西南交大"}

// KeywordMatcher finds any of a fixed set of keywords in a text using an
// Aho-Corasick automaton built once at startup.
type KeywordMatcher struct {
	machine *goahocorasick.Machine
}

// NewKeywordMatcher normalizes the keywords and builds the automaton.
// Blank keywords are ignored, an empty set matches nothing.
func NewKeywordMatcher(keywords []string) (*KeywordMatcher, error) {
	patterns := lo.FilterMap(keywords, func(word string, _ int) ([]rune, bool) {
		normalized := normalize(word)
		return normalized, len(normalized) > 0
	})
	if len(patterns) == 0 {
		return &KeywordMatcher{}, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &KeywordMatcher{machine: m}, nil
}

// Matches returns every keyword occurrence in text, in order of appearance.
func (k *KeywordMatcher) Matches(text string) []string {
	if k.machine == nil {
		return nil
	}
	normalized := normalize(text)
	if len(normalized) == 0 {
		return nil
	}
	terms := k.machine.MultiPatternSearch(normalized, false)
	return lo.Map(terms, func(term *goahocorasick.Term, _ int) string {
		return string(term.Word)
	})
}

// normalize lowercases and drops punctuation, spaces and symbols so that
// "清 华" or "清-华" still match.
func normalize(input string) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
	}
	return out
}
