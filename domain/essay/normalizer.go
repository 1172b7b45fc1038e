// Package essay cleans free-text essays before they reach the trait encoder.
package essay

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/helixml/careerpath/domain/errs"
	"golang.org/x/text/unicode/norm"
)

// DefaultMinLength is the minimum cleaned essay length, in characters.
const DefaultMinLength = 10

var urlPattern = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+`)

// allowedPunct lists the punctuation kept by the normalizer.
const allowedPunct = `.,;:!?'"()-/%&`

// Normalizer turns a raw essay into encoder input.
type Normalizer struct {
	minLength int
}

// NewNormalizer creates a Normalizer. A minLength below 1 uses
// DefaultMinLength.
func NewNormalizer(minLength int) Normalizer {
	if minLength < 1 {
		minLength = DefaultMinLength
	}
	return Normalizer{minLength: minLength}
}

// MinLength returns the configured minimum length.
func (n Normalizer) MinLength() int { return n.minLength }

// Normalize composes the text to NFC, strips URLs and zero-width characters,
// drops anything outside Latin letters, digits and basic punctuation, and
// collapses whitespace. It returns errs.ErrValidation when the result is
// shorter than the minimum length.
func (n Normalizer) Normalize(raw string) (string, error) {
	text := norm.NFC.String(raw)
	text = strings.Map(dropZeroWidth, text)
	text = urlPattern.ReplaceAllString(text, " ")
	text = strings.Map(allowList, text)
	text = strings.Join(strings.Fields(text), " ")

	if got := utf8.RuneCountInString(text); got < n.minLength {
		return "", errs.Validationf("essay too short after normalization: %d < %d characters", got, n.minLength)
	}
	return text, nil
}

func dropZeroWidth(r rune) rune {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
		return -1
	}
	return r
}

// allowList maps disallowed runes to a space so that words on either side
// stay separated.
func allowList(r rune) rune {
	switch {
	case unicode.IsSpace(r):
		return ' '
	case unicode.Is(unicode.Latin, r), unicode.Is(unicode.Mn, r):
		return r
	case r >= '0' && r <= '9':
		return r
	case strings.ContainsRune(allowedPunct, r):
		return r
	}
	return ' '
}
