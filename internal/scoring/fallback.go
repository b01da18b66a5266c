package scoring

import "strings"

// Overall scores for the fixed fallback profiles. These are placeholder policy
// values, not derived from a scoring model.
const (
	NeutralAIOverall        = 60
	ImageFallbackOverall    = 45
	NoTextFallbackOverall   = 25
	WithTextFallbackOverall = 48
	FallbackScoreCap        = 80
)

// Fallback reasons recorded in details.fallbackReason.
const (
	ReasonAIUnavailable   = "ai_unavailable"
	ReasonNoSelectableTxt = "no_selectable_text"
)

// NeutralAI is the response used when model output cannot be obtained or parsed.
func NeutralAI() Response {
	return Response{
		OverallScore: NeutralAIOverall,
		Scores: ScoreSet{
			Content:    60,
			Structure:  58,
			Formatting: 62,
			Keywords:   55,
			Contact:    55,
			Skills:     60,
			Experience: 55,
			Education:  65,
		},
		Suggestions: []Suggestion{{
			Title:       "AI Limited",
			Description: "Fallback heuristic analysis used. Try again later for deeper insights.",
			Category:    "System",
			Severity:    SeverityLow,
		}},
		Details:       map[string]any{},
		ExtractedText: "",
	}
}

// ImageFallback is the response for image-only documents the model could not read.
func ImageFallback() Response {
	return Response{
		OverallScore: ImageFallbackOverall,
		Scores: ScoreSet{
			Content:    40,
			Contact:    50,
			Skills:     45,
			Experience: 40,
			Education:  58,
			Formatting: 50,
			Keywords:   35,
			Structure:  45,
		},
		Suggestions: []Suggestion{
			{
				Title:       "Image-Based Only",
				Description: "This appears to be image or non-selectable text. Upload a text-based PDF for richer analysis.",
				Category:    "Format",
				Severity:    SeverityMedium,
			},
			{
				Title:       "Improve Clarity",
				Description: "Ensure high contrast and no blurring to enable OCR or text extraction.",
				Category:    "Format",
				Severity:    SeverityLow,
			},
		},
		Details: map[string]any{
			"analysisMethod":   "image_fallback",
			"isImageBased":     true,
			"wordCount":        0,
			"hasContactInfo":   false,
			"hasSkillsSection": false,
			"hasExperience":    false,
			"hasEducation":     false,
			"fallbackReason":   ReasonNoSelectableTxt,
		},
		ExtractedText: "",
	}
}

// EnhancedFallback is used when neither model path is possible. With text it
// reuses the rule-based scores capped at 80; without text it reports a synthetic
// low distribution.
func EnhancedFallback(text string) Response {
	hasText := strings.TrimSpace(text) != ""

	resp := Response{}
	var suggestions []Suggestion
	if hasText {
		resp.OverallScore = WithTextFallbackOverall
		resp.Scores = Score(text).Cap(FallbackScoreCap)
		suggestions = append(suggestions, Suggestion{
			Title:       "Partial (Fallback) Analysis",
			Description: "A full AI analysis was not completed. Re-run later to obtain comprehensive insights and deeper keyword evaluation.",
			Category:    "System",
			Severity:    SeverityMedium,
		})
	} else {
		resp.OverallScore = NoTextFallbackOverall
		resp.Scores = ScoreSet{
			Content:    20,
			Contact:    30,
			Skills:     35,
			Experience: 30,
			Education:  45,
			Formatting: 40,
			Keywords:   30,
			Structure:  38,
		}
		suggestions = append(suggestions,
			Suggestion{
				Title:       "No Selectable Text Detected",
				Description: "The PDF appears to contain non-extractable or image-based content. Export directly from a text editor (Word, Google Docs) instead of scanning.",
				Category:    "Format",
				Severity:    SeverityHigh,
			},
			Suggestion{
				Title:       "Provide Text-Based Resume",
				Description: "Use a digital format so ATS systems and AI can analyze keywords, sections, and accomplishments accurately.",
				Category:    "Format",
				Severity:    SeverityHigh,
			},
		)
	}
	resp.Suggestions = append(suggestions, Suggestion{
		Title:       "Ensure Core Sections",
		Description: "Include clear sections: Summary, Skills, Experience/Projects, Education, and Contact Info. Label them distinctly.",
		Category:    "Structure",
		Severity:    SeverityMedium,
	})

	details := Details(text)
	details["analysisMethod"] = "fallback"
	details["isImageBased"] = !hasText
	if hasText {
		details["fallbackReason"] = ReasonAIUnavailable
		resp.ExtractedText = text
	} else {
		details["fallbackReason"] = ReasonNoSelectableTxt
	}
	resp.Details = details
	return resp
}

// CombineWithNeutral merges rule-based scores under the neutral model profile.
// It stands in for a model analysis when the model call failed outright.
func CombineWithNeutral(text string) Response {
	basic := Score(text)
	ai := NeutralAI()
	merged := basic.Merge(ai.Scores)

	overall := ai.OverallScore
	if overall <= 0 {
		overall = merged.Mean()
	}
	suggestions := ai.Suggestions
	if len(suggestions) == 0 {
		suggestions = BasicSuggestions(basic)
	}
	return Response{
		OverallScore:  overall,
		Scores:        merged,
		Suggestions:   suggestions,
		Details:       Details(text),
		ExtractedText: text,
	}
}
