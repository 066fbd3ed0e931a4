// Package intent maps free-form assistant utterances to browser commands.
package intent

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/bnema/voce/internal/domain/entity"
)

var (
	// ErrUnknownIntent is returned when no phrase is close enough.
	ErrUnknownIntent = errors.New("unknown intent")
	// ErrAmbiguousIntent is returned when phrases of different commands tie.
	ErrAmbiguousIntent = errors.New("ambiguous intent")
)

// phrases are matched after normalization (lower case, no punctuation,
// filler words removed).
var phrases = map[string]entity.Command{
	"open tab":             entity.CommandOpenTab,
	"open new tab":         entity.CommandOpenTab,
	"new tab":              entity.CommandOpenTab,
	"close tab":            entity.CommandCloseCurrentTab,
	"close current tab":    entity.CommandCloseCurrentTab,
	"close this tab":       entity.CommandCloseCurrentTab,
	"open window":          entity.CommandOpenWindow,
	"open new window":      entity.CommandOpenWindow,
	"new window":           entity.CommandOpenWindow,
	"close window":         entity.CommandCloseCurrentWindow,
	"close current window": entity.CommandCloseCurrentWindow,
	"close this window":    entity.CommandCloseCurrentWindow,
	"hello":                entity.CommandWelcome,
	"welcome":              entity.CommandWelcome,
}

var fillers = map[string]bool{
	"a":      true,
	"the":    true,
	"please": true,
	"hey":    true,
	"voce":   true,
	"can":    true,
	"you":    true,
}

// Matcher resolves utterances with an edit-distance tolerance.
type Matcher struct {
	// MaxDistanceRatio bounds the accepted edit distance relative to the
	// phrase length. Zero disables fuzzy matching.
	MaxDistanceRatio float64
}

// NewMatcher returns a matcher that tolerates roughly one typo per five characters.
func NewMatcher() *Matcher {
	return &Matcher{MaxDistanceRatio: 0.2}
}

// Parse resolves text with a default matcher.
func Parse(text string) (entity.Command, error) {
	return NewMatcher().Parse(text)
}

// Parse resolves an utterance to a command.
func (m *Matcher) Parse(text string) (entity.Command, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return entity.CommandNone, fmt.Errorf("%w: empty utterance", ErrUnknownIntent)
	}
	if cmd, ok := phrases[normalized]; ok {
		return cmd, nil
	}
	if m.MaxDistanceRatio <= 0 {
		return entity.CommandNone, fmt.Errorf("%w: %q", ErrUnknownIntent, text)
	}

	best := -1
	bestCmd := entity.CommandNone
	ambiguous := false
	for phrase, cmd := range phrases {
		limit := int(float64(len(phrase)) * m.MaxDistanceRatio)
		if limit < 1 {
			limit = 1
		}
		dist := levenshtein.ComputeDistance(normalized, phrase)
		if dist > limit {
			continue
		}
		switch {
		case best < 0 || dist < best:
			best, bestCmd, ambiguous = dist, cmd, false
		case dist == best && cmd != bestCmd:
			ambiguous = true
		}
	}

	switch {
	case best < 0:
		return entity.CommandNone, fmt.Errorf("%w: %q", ErrUnknownIntent, text)
	case ambiguous:
		return entity.CommandNone, fmt.Errorf("%w: %q", ErrAmbiguousIntent, text)
	}
	return bestCmd, nil
}

// Normalize lower-cases text, drops punctuation and filler words, and
// collapses whitespace.
func Normalize(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, text)

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, w := range words {
		if !fillers[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
