package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhancedFallbackWithoutText(t *testing.T) {
	resp := EnhancedFallback("")

	assert.Equal(t, 25, resp.OverallScore)
	require.Len(t, resp.Scores, 8)
	assert.Equal(t, 20, resp.Scores[Content])
	assert.Equal(t, "fallback", resp.Details["analysisMethod"])
	assert.Equal(t, ReasonNoSelectableTxt, resp.Details["fallbackReason"])
	assert.Equal(t, true, resp.Details["isImageBased"])
	assert.Empty(t, resp.ExtractedText)

	titles := []string{}
	for _, s := range resp.Suggestions {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"No Selectable Text Detected", "Provide Text-Based Resume", "Ensure Core Sections"}, titles)
}

func TestEnhancedFallbackWithTextCapsScores(t *testing.T) {
	resp := EnhancedFallback(sampleResume)

	assert.Equal(t, 48, resp.OverallScore)
	for _, d := range Dimensions {
		assert.LessOrEqual(t, resp.Scores[d], FallbackScoreCap, "dimension %s", d)
	}
	assert.Equal(t, ReasonAIUnavailable, resp.Details["fallbackReason"])
	assert.Equal(t, sampleResume, resp.ExtractedText)
	assert.Equal(t, "Partial (Fallback) Analysis", resp.Suggestions[0].Title)
}

func TestNeutralAIProfile(t *testing.T) {
	resp := NeutralAI()
	assert.Equal(t, 60, resp.OverallScore)
	require.Len(t, resp.Scores, 8)
	assert.Equal(t, 65, resp.Scores[Education])
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "AI Limited", resp.Suggestions[0].Title)
}

func TestImageFallbackProfile(t *testing.T) {
	resp := ImageFallback()
	assert.Equal(t, 45, resp.OverallScore)
	assert.Equal(t, "image_fallback", resp.Details["analysisMethod"])
	require.Len(t, resp.Suggestions, 2)
}

func TestCombineWithNeutralUsesNeutralScores(t *testing.T) {
	resp := CombineWithNeutral(sampleResume)
	neutral := NeutralAI()

	assert.Equal(t, neutral.OverallScore, resp.OverallScore)
	assert.Equal(t, neutral.Scores.Complete(), resp.Scores)
	assert.Equal(t, sampleResume, resp.ExtractedText)
	assert.Equal(t, "AI Limited", resp.Suggestions[0].Title)
}

func TestScoreSetHelpers(t *testing.T) {
	s := ScoreSet{Content: 120, Contact: -5}
	c := s.Complete()
	require.Len(t, c, 8)
	assert.Equal(t, 100, c[Content])
	assert.Equal(t, 0, c[Contact])
	assert.Equal(t, 12, c.Mean())

	assert.Equal(t, ScoreSet{Skills: 70}.Merge(ScoreSet{Skills: 90})[Skills], 90)
	assert.Nil(t, FromMap(map[string]float64{"unknown": 5}))
	assert.True(t, ScoreSet(nil).IsZero())
	assert.True(t, FromMap(nil).Complete().IsZero())
	assert.False(t, ScoreSet{Keywords: 1}.IsZero())
	assert.Equal(t, 77, FromMap(map[string]float64{" Skills ": 77})[Skills])
}

func TestNormalizeSeverity(t *testing.T) {
	assert.Equal(t, SeverityHigh, NormalizeSeverity("Critical"))
	assert.Equal(t, SeverityLow, NormalizeSeverity("low"))
	assert.Equal(t, SeverityMedium, NormalizeSeverity(""))
}
