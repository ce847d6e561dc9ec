// Package moderation masks banned words in message text before it is stored.
package moderation

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator is safe for concurrent use once built. A nil *Moderator censors
// nothing.
type Moderator struct {
	shared       *goahocorasick.Machine
	byLanguage   map[string]*goahocorasick.Machine
	censoredChar rune
}

type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the automaton from the normalized words. Words that
// normalize to nothing are ignored.
func NewModerator(censoredWords []string, censoredChar rune) (*Moderator, error) {
	return NewLanguageModerator(censoredWords, nil, censoredChar)
}

// NewLanguageModerator masks shared words in every message and, on top of
// them, the words listed under the ISO 639-1 code detected for the message.
// It returns nil when no list holds a usable word.
func NewLanguageModerator(shared []string, byLanguage map[string][]string, censoredChar rune) (*Moderator, error) {
	m := &Moderator{byLanguage: make(map[string]*goahocorasick.Machine), censoredChar: censoredChar}
	var err error
	if m.shared, err = buildMachine(shared); err != nil {
		return nil, err
	}
	for lang, words := range byLanguage {
		machine, err := buildMachine(words)
		if err != nil {
			return nil, fmt.Errorf("words for %q: %w", lang, err)
		}
		if machine != nil {
			m.byLanguage[strings.ToLower(lang)] = machine
		}
	}
	if m.shared == nil && len(m.byLanguage) == 0 {
		return nil, nil
	}
	return m, nil
}

func buildMachine(words []string) (*goahocorasick.Machine, error) {
	keys := make([]string, 0, len(words))
	for _, word := range words {
		if p := normalizeRunes([]rune(word)); len(p) > 0 {
			keys = append(keys, string(p))
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	// The double array trie wants sorted keys without duplicates.
	keys = lo.Uniq(keys)
	slices.Sort(keys)
	patterns := lo.Map(keys, func(k string, _ int) []rune { return []rune(k) })

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseLanguageWords reads "fr=word,word;en=word" into per-language lists.
func ParseLanguageWords(list string) (map[string][]string, error) {
	byLanguage := make(map[string][]string)
	for _, entry := range strings.Split(list, ";") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		lang, words, ok := strings.Cut(entry, "=")
		lang = strings.ToLower(strings.TrimSpace(lang))
		if !ok || lang == "" {
			return nil, fmt.Errorf("expected lang=word,word, got %q", entry)
		}
		byLanguage[lang] = append(byLanguage[lang], ParseWords(words)...)
	}
	return byLanguage, nil
}

// ParseWords splits a comma separated list, dropping blanks.
func ParseWords(list string) []string {
	var words []string
	for _, w := range strings.Split(list, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Censor replaces every matched span of the original text, rune for rune,
// and returns the matched words in reading order. Length in runes is
// preserved.
func (m *Moderator) Censor(original string) (string, []string) {
	if m == nil {
		return original, nil
	}
	mapping := normalize(original)
	if len(mapping.normalized) == 0 {
		return original, nil
	}

	var spans []*goahocorasick.Term
	if m.shared != nil {
		spans = m.shared.MultiPatternSearch(mapping.normalized, false)
	}
	if machine := m.languageMachine(original); machine != nil {
		spans = append(spans, machine.MultiPatternSearch(mapping.normalized, false)...)
		slices.SortStableFunc(spans, func(a, b *goahocorasick.Term) int { return a.Pos - b.Pos })
	}
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	words := make([]string, 0, len(spans))
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}
		for i := mapping.origIdx[start]; i <= mapping.origIdx[end-1]; i++ {
			origRunes[i] = m.censoredChar
		}
		words = append(words, string(span.Word))
	}
	return string(origRunes), words
}

func (m *Moderator) languageMachine(text string) *goahocorasick.Machine {
	if len(m.byLanguage) == 0 {
		return nil
	}
	return m.byLanguage[whatlanggo.Detect(text).Lang.Iso6391()]
}

// normalize drops noise and tracks where each kept rune came from.
func normalize(input string) textMapping {
	origRunes := []rune(input)
	mapping := textMapping{
		normalized: make([]rune, 0, len(origRunes)),
		origIdx:    make([]int, 0, len(origRunes)),
	}
	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		mapping.normalized = append(mapping.normalized, unicode.ToLower(clean))
		mapping.origIdx = append(mapping.origIdx, i)
	}
	return mapping
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps leet speak back to letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
