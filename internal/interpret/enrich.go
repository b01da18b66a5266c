package interpret

import (
	"strings"

	"resume-analyzer/internal/scoring"
)

// MaxExtractedChars caps stored extracted text.
const MaxExtractedChars = 120_000

var diagnosticPhrases = []string{
	"fallback analysis",
	"unable to extract",
	"image analysis completed",
	"processed using image recognition",
}

// Enrich fills gaps in a parsed response: heuristic scores when the model gave
// no usable scores (every dimension 0), the input text when extractedText is blank, heuristic details when
// details are missing, and the dimension mean when overallScore is not positive.
// The returned score set always carries all eight dimensions.
func Enrich(resp scoring.Response, text string) scoring.Response {
	if resp.Scores.IsZero() {
		resp.Scores = scoring.Score(text)
	}
	resp.Scores = resp.Scores.Complete()
	if strings.TrimSpace(resp.ExtractedText) == "" {
		resp.ExtractedText = text
	}
	if resp.Details == nil {
		resp.Details = scoring.Details(text)
	}
	if resp.OverallScore <= 0 {
		resp.OverallScore = resp.Scores.Mean()
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []scoring.Suggestion{}
	}
	return resp
}

// Sanitize drops text that is a diagnostic message rather than resume content
// and truncates the rest to MaxExtractedChars. NUL bytes and invalid UTF-8 are
// removed first.
func Sanitize(text string) string {
	text = cleanText(text)
	lower := strings.ToLower(text)
	for _, p := range diagnosticPhrases {
		if strings.Contains(lower, p) {
			return ""
		}
	}
	r := []rune(text)
	if len(r) > MaxExtractedChars {
		return string(r[:MaxExtractedChars])
	}
	return text
}
