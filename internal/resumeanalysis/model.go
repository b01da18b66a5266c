package resumeanalysis

import (
	"time"

	"resume-analyzer/internal/scoring"
)

// Method is the analysis path chosen for a document.
type Method string

const (
	MethodText     Method = "text"
	MethodImage    Method = "image"
	MethodFallback Method = "fallback"
)

// Record is one persisted analysis.
type Record struct {
	ID               int64
	OwnerID          string
	Filename         string
	FileSize         int64
	OverallScore     int
	Scores           scoring.ScoreSet
	ExtractedText    string
	Suggestions      []scoring.Suggestion
	Details          map[string]any
	PageImages       []string
	WordCount        int
	HasContactInfo   bool
	HasSkillsSection bool
	HasExperience    bool
	HasEducation     bool
	AnalysisVersion  string
	ProcessingTimeMs int64
	Thumbnail        *Thumbnail
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Thumbnail is the first rendered page stored inline with the record.
type Thumbnail struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// Artifacts is the second-phase update attached after pages are rendered.
type Artifacts struct {
	Details    map[string]any
	PageImages []string
	Thumbnail  *Thumbnail
}

// Upload is one analyze request.
type Upload struct {
	OwnerID  string
	Filename string
	Size     int64
	Data     []byte
}

// Result is returned by Service.Analyze.
type Result struct {
	Response     scoring.Response
	AnalysisID   int64
	Method       Method
	PageCount    int
	ImagePages   int
	ProcessingMs int64
}

// HistoryItem is the list view of a record.
type HistoryItem struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	OverallScore int       `json:"overallScore"`
	CreatedAt    time.Time `json:"createdAt"`
	Summary      string    `json:"summary"`
	PageImages   []string  `json:"pageImages"`
}

// Stats summarizes an owner's analyses.
type Stats struct {
	TotalAnalyses     int    `json:"totalAnalyses"`
	AverageScore      int    `json:"averageScore"`
	BestScore         int    `json:"bestScore"`
	ImprovementTrend  string `json:"improvementTrend"`
	ImprovementPoints int    `json:"improvementPoints"`
	HasAnalyzedToday  bool   `json:"hasAnalyzedToday"`
}

// Capabilities describes how a document would be analyzed.
type Capabilities struct {
	PageCount          int    `json:"pageCount"`
	HasSelectableText  bool   `json:"hasSelectableText"`
	TextMeaningful     bool   `json:"textMeaningful"`
	CanConvertToImages bool   `json:"canConvertToImages"`
	RecommendedMethod  Method `json:"recommendedMethod"`
	ExtractedChars     int    `json:"extractedChars"`
}

// ToResponse rebuilds the API response of a stored record.
func (r Record) ToResponse() scoring.Response {
	details := r.Details
	if details == nil {
		details = map[string]any{}
	}
	suggestions := r.Suggestions
	if suggestions == nil {
		suggestions = []scoring.Suggestion{}
	}
	return scoring.Response{
		OverallScore:  r.OverallScore,
		Scores:        r.Scores.Complete(),
		Suggestions:   suggestions,
		Details:       details,
		ExtractedText: r.ExtractedText,
	}
}
