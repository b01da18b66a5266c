package llm

import _ "embed"

// Input caps applied before the resume text is appended to a prompt.
const (
	AnalysisInputChars = 2000
	SummaryInputChars  = 3000
)

var (
	//go:embed prompts/analysis.txt
	analysisPrompt string
	//go:embed prompts/image.txt
	imagePrompt string
	//go:embed prompts/summary.txt
	summaryPrompt string
	//go:embed prompts/ocr.txt
	ocrPrompt string
)

// AnalysisPrompt asks for the scoring JSON over the first 2000 characters of text.
func AnalysisPrompt(text string) string {
	return analysisPrompt + truncate(text, AnalysisInputChars)
}

// ImagePrompt accompanies rendered pages sent for analysis.
func ImagePrompt() string {
	return imagePrompt
}

// SummaryPrompt asks for a short prose summary of the first 3000 characters.
func SummaryPrompt(text string) string {
	return summaryPrompt + truncate(text, SummaryInputChars)
}

// OCRPrompt asks for a plain transcription of one page image.
func OCRPrompt() string {
	return ocrPrompt
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
