package extract

import (
	"regexp"
	"strings"
)

// Thresholds for IsMeaningful.
const (
	MinMeaningfulChars = 100
	MinMeaningfulWords = 20
)

var (
	letterRun        = regexp.MustCompile(`[A-Za-z]{3,}`)
	resumeVocabulary = regexp.MustCompile(`(?i)(education|experience|skills|email|phone|linkedin|github|project)`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// IsMeaningful reports whether extracted text is usable for language-model
// analysis. All conditions must hold: at least 100 characters and 20 words after
// whitespace normalization, a run of three ASCII letters, and at least one
// resume vocabulary term.
func IsMeaningful(text string) bool {
	clean := NormalizeWhitespace(text)
	if len(clean) < MinMeaningfulChars {
		return false
	}
	if len(strings.Fields(clean)) < MinMeaningfulWords {
		return false
	}
	if !letterRun.MatchString(clean) {
		return false
	}
	return resumeVocabulary.MatchString(clean)
}

// NormalizeWhitespace collapses whitespace runs to single spaces and trims.
func NormalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
