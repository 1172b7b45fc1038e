package essay

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/helixml/careerpath/domain/errs"
)

// Language identifies an encoder checkpoint.
type Language string

// Supported languages. LanguageAuto asks the encoder to detect.
const (
	LanguageAuto       Language = "auto"
	LanguageVietnamese Language = "vi"
	LanguageEnglish    Language = "en"
)

// Languages lists the languages with a checkpoint.
func Languages() []Language {
	return []Language{LanguageVietnamese, LanguageEnglish}
}

// ParseLanguage accepts "", "auto", "vi" or "en" in any case.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case "", LanguageAuto:
		return LanguageAuto, nil
	case LanguageVietnamese:
		return LanguageVietnamese, nil
	case LanguageEnglish:
		return LanguageEnglish, nil
	}
	return "", fmt.Errorf("%w: unsupported language %q", errs.ErrValidation, s)
}

// vietnameseLetters are letters that occur in Vietnamese but not English.
const vietnameseLetters = "ăâđêôơư" +
	"àáảãạằắẳẵặầấẩẫậ" +
	"èéẻẽẹềếểễệ" +
	"ìíỉĩị" +
	"òóỏõọồốổỗộờớởỡợ" +
	"ùúủũụừứửữự" +
	"ỳýỷỹỵ"

var (
	vietnameseStopWords = map[string]struct{}{
		"và": {}, "của": {}, "là": {}, "tôi": {}, "không": {}, "những": {},
		"các": {}, "được": {}, "trong": {}, "cho": {}, "với": {}, "một": {},
		"có": {}, "em": {}, "muốn": {}, "thích": {},
	}
	englishStopWords = map[string]struct{}{
		"the": {}, "and": {}, "i": {}, "to": {}, "of": {}, "is": {},
		"in": {}, "a": {}, "my": {}, "want": {}, "like": {}, "with": {},
	}
)

// vietnameseLetterRatio is the share of Vietnamese-only letters above which
// a text is treated as Vietnamese regardless of stop words.
const vietnameseLetterRatio = 0.05

// DetectLanguage guesses between Vietnamese and English. Text with a
// noticeable share of Vietnamese-only letters, or more Vietnamese than
// English stop words, is Vietnamese; everything else is English.
func DetectLanguage(text string) Language {
	lower := strings.ToLower(text)

	letters, viLetters := 0, 0
	for _, r := range lower {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if strings.ContainsRune(vietnameseLetters, r) {
			viLetters++
		}
	}
	if letters > 0 && float64(viLetters)/float64(letters) >= vietnameseLetterRatio {
		return LanguageVietnamese
	}

	vi, en := 0, 0
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if _, ok := vietnameseStopWords[w]; ok {
			vi++
		}
		if _, ok := englishStopWords[w]; ok {
			en++
		}
	}
	if vi > en {
		return LanguageVietnamese
	}
	return LanguageEnglish
}

// Resolve returns lang unless it is LanguageAuto, in which case the
// language is detected from text.
func Resolve(lang Language, text string) Language {
	if lang == LanguageAuto || lang == "" {
		return DetectLanguage(text)
	}
	return lang
}
