// Package scoring holds the resume score model, the rule-based scorer and the
// fixed fallback profiles used when no model output is available.
package scoring

import "strings"

// Dimension names one of the eight scored aspects of a resume.
type Dimension string

const (
	Content    Dimension = "content"
	Contact    Dimension = "contact"
	Skills     Dimension = "skills"
	Experience Dimension = "experience"
	Education  Dimension = "education"
	Formatting Dimension = "formatting"
	Keywords   Dimension = "keywords"
	Structure  Dimension = "structure"
)

// Dimensions lists every dimension in persistence order.
var Dimensions = []Dimension{Content, Contact, Skills, Experience, Education, Formatting, Keywords, Structure}

// ScoreSet maps dimensions to a score in [0,100].
type ScoreSet map[Dimension]int

// Complete returns a copy holding all eight dimensions, clamped to [0,100].
// Unknown keys are dropped and missing ones default to 0.
func (s ScoreSet) Complete() ScoreSet {
	out := make(ScoreSet, len(Dimensions))
	for _, d := range Dimensions {
		out[d] = clamp(s[d])
	}
	return out
}

// Mean is the unweighted integer mean across the eight dimensions.
func (s ScoreSet) Mean() int {
	total := 0
	for _, d := range Dimensions {
		total += clamp(s[d])
	}
	return total / len(Dimensions)
}

// IsZero reports whether no dimension holds a positive score.
func (s ScoreSet) IsZero() bool {
	for _, v := range s {
		if v > 0 {
			return false
		}
	}
	return true
}

// Cap lowers every dimension above max to max.
func (s ScoreSet) Cap(max int) ScoreSet {
	out := s.Complete()
	for d, v := range out {
		if v > max {
			out[d] = max
		}
	}
	return out
}

// Merge overlays other on top of s; keys present in other win.
func (s ScoreSet) Merge(other ScoreSet) ScoreSet {
	out := make(ScoreSet, len(Dimensions))
	for d, v := range s {
		out[d] = v
	}
	for d, v := range other {
		out[d] = v
	}
	return out.Complete()
}

// FromMap converts loosely keyed model output into a ScoreSet. Keys are matched
// case-insensitively; unknown keys are ignored.
func FromMap(raw map[string]float64) ScoreSet {
	if len(raw) == 0 {
		return nil
	}
	out := make(ScoreSet, len(raw))
	for k, v := range raw {
		d := Dimension(strings.ToLower(strings.TrimSpace(k)))
		if !d.Valid() {
			continue
		}
		out[d] = int(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Valid reports whether d is one of the eight known dimensions.
func (d Dimension) Valid() bool {
	for _, known := range Dimensions {
		if d == known {
			return true
		}
	}
	return false
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Severity grades a suggestion.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// NormalizeSeverity maps free-form severities onto low/medium/high.
func NormalizeSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high", "critical", "major":
		return SeverityHigh
	case "low", "minor", "info":
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// Suggestion is a single improvement hint.
type Suggestion struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Severity    Severity `json:"severity" validate:"oneof=low medium high"`
}

// Response is the analysis outcome handed back to callers and persisted.
type Response struct {
	OverallScore  int            `json:"overallScore"`
	Scores        ScoreSet       `json:"scores"`
	Suggestions   []Suggestion   `json:"suggestions"`
	Details       map[string]any `json:"details"`
	ExtractedText string         `json:"extractedText"`
}
