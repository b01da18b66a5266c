package scoring

import (
	"regexp"
	"strings"
)

// Policy constants for the rule-based scorer.
const (
	FixedFormatting = 72
	FixedKeywords   = 64
	FixedStructure  = 70
	NeutralScore    = 50

	ContactEmailPoints    = 40
	ContactPhonePoints    = 30
	ContactLinkedInPoints = 15
	ContactGitHubPoints   = 15

	SectionStrong = 90
	SectionWeak   = 70
	SectionNone   = 50
	EducationNone = 60
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
		regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\+\d{1,3}[\s-]?\d{2,5}[\s-]?\d{3,4}[\s-]?\d{3,4}\b`),
	}

	skillTerms     = []string{"java", "python", "javascript", "typescript", "golang", "sql", "docker", "kubernetes", "react", "aws"}
	educationTerms = []string{"education", "university", "degree", "college", "bachelor", "master", "bsc", "msc", "phd"}
)

// Score runs the rule-based scorer. It never fails: an internal panic yields a
// neutral set with every dimension at 50.
func Score(text string) (out ScoreSet) {
	defer func() {
		if rec := recover(); rec != nil {
			out = Neutral()
		}
	}()

	lower := strings.ToLower(text)
	return ScoreSet{
		Content:    lengthScore(text),
		Contact:    contactScore(text, lower),
		Skills:     skillsScore(lower),
		Experience: experienceScore(lower),
		Education:  educationScore(lower),
		Formatting: FixedFormatting,
		Keywords:   FixedKeywords,
		Structure:  FixedStructure,
	}
}

// Neutral returns every dimension at 50.
func Neutral() ScoreSet {
	out := make(ScoreSet, len(Dimensions))
	for _, d := range Dimensions {
		out[d] = NeutralScore
	}
	return out
}

// WordCount counts whitespace separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func lengthScore(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	words := WordCount(text)
	switch {
	case words >= 300 && words <= 800:
		return 100
	case words >= 200 && words <= 1000:
		return 80
	case words >= 100 && words <= 1200:
		return 60
	default:
		return 40
	}
}

func contactScore(text, lower string) int {
	score := 0
	if emailPattern.MatchString(text) {
		score += ContactEmailPoints
	}
	for _, p := range phonePatterns {
		if p.MatchString(text) {
			score += ContactPhonePoints
			break
		}
	}
	if strings.Contains(lower, "linkedin") {
		score += ContactLinkedInPoints
	}
	if strings.Contains(lower, "github") {
		score += ContactGitHubPoints
	}
	return clamp(score)
}

func skillsScore(lower string) int {
	if strings.Contains(lower, "skills") || strings.Contains(lower, "technical") {
		return SectionStrong
	}
	if containsAny(lower, skillTerms) {
		return SectionWeak
	}
	return SectionNone
}

func experienceScore(lower string) int {
	hasExperience := strings.Contains(lower, "experience")
	if hasExperience && strings.Contains(lower, "work") {
		return SectionStrong
	}
	if hasExperience || strings.Contains(lower, "internship") || strings.Contains(lower, "project") {
		return SectionWeak
	}
	return SectionNone
}

func educationScore(lower string) int {
	if containsAny(lower, educationTerms) {
		return SectionStrong
	}
	return EducationNone
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// Details derives the content flags stored alongside every analysis.
func Details(text string) map[string]any {
	if strings.TrimSpace(text) == "" {
		return map[string]any{
			"wordCount":        0,
			"hasContactInfo":   false,
			"hasSkillsSection": false,
			"hasExperience":    false,
			"hasEducation":     false,
		}
	}
	lower := strings.ToLower(text)
	return map[string]any{
		"wordCount":        WordCount(text),
		"hasContactInfo":   strings.Contains(text, "@"),
		"hasSkillsSection": strings.Contains(lower, "skills"),
		"hasExperience":    strings.Contains(lower, "experience"),
		"hasEducation":     strings.Contains(lower, "education"),
	}
}

// BasicSuggestions turns weak heuristic dimensions into suggestions.
func BasicSuggestions(scores ScoreSet) []Suggestion {
	out := []Suggestion{}
	if scores[Contact] < 80 {
		out = append(out, Suggestion{
			Title:       "Add Complete Contact Info",
			Description: "Include email, phone, LinkedIn, and GitHub (if relevant).",
			Category:    "Contact",
			Severity:    SeverityHigh,
		})
	}
	if scores[Skills] < 70 {
		out = append(out, Suggestion{
			Title:       "Strengthen Skills Section",
			Description: "Add specific tools, frameworks, and quantify proficiency if possible.",
			Category:    "Skills",
			Severity:    SeverityMedium,
		})
	}
	if scores[Experience] < 60 {
		out = append(out, Suggestion{
			Title:       "Add Experience/Projects",
			Description: "List internships or projects with impact statements (metrics, outcomes).",
			Category:    "Experience",
			Severity:    SeverityMedium,
		})
	}
	return out
}
