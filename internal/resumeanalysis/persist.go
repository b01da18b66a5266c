package resumeanalysis

import (
	"context"
	"fmt"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/scoring"
	"resume-analyzer/internal/shared/telemetry"
)

// SaveInput carries everything the two-phase save needs.
type SaveInput struct {
	OwnerID       string
	Filename      string
	Size          int64
	Document      []byte
	Pages         []extract.Page
	Response      scoring.Response
	SanitizedText string
	ProcessingMs  int64
	Version       string
}

// Save inserts the record, writes page artifacts, then attaches them. A failure
// after the insert leaves the first-phase row in place and is reported wrapped
// in ErrArtifactsIncomplete together with the saved record.
func (s *Service) Save(ctx context.Context, in SaveInput) (Record, error) {
	resp := in.Response
	details := scoring.Details(in.SanitizedText)
	rec := Record{
		OwnerID:          in.OwnerID,
		Filename:         in.Filename,
		FileSize:         in.Size,
		OverallScore:     resp.OverallScore,
		Scores:           resp.Scores.Complete(),
		ExtractedText:    in.SanitizedText,
		Suggestions:      resp.Suggestions,
		Details:          resp.Details,
		WordCount:        intDetail(resp.Details, "wordCount", details["wordCount"].(int)),
		HasContactInfo:   boolDetail(resp.Details, "hasContactInfo", details["hasContactInfo"].(bool)),
		HasSkillsSection: boolDetail(resp.Details, "hasSkillsSection", details["hasSkillsSection"].(bool)),
		HasExperience:    boolDetail(resp.Details, "hasExperience", details["hasExperience"].(bool)),
		HasEducation:     boolDetail(resp.Details, "hasEducation", details["hasEducation"].(bool)),
		AnalysisVersion:  in.Version,
		ProcessingTimeMs: in.ProcessingMs,
	}

	saved, err := s.Repo.Create(ctx, rec)
	if err != nil {
		return Record{}, fmt.Errorf("create analysis: %w", err)
	}

	written, err := s.Artifacts.Write(ctx, in.OwnerID, saved.ID, in.Document, in.Pages)
	if err != nil {
		return saved, s.incomplete(saved.ID, err)
	}

	merged := make(map[string]any, len(resp.Details)+1)
	for k, v := range resp.Details {
		merged[k] = v
	}
	merged["pageImages"] = written.URLs
	artifacts := Artifacts{Details: merged, PageImages: written.URLs, Thumbnail: written.Thumbnail}
	if err := s.Repo.AttachArtifacts(ctx, saved.ID, artifacts); err != nil {
		return saved, s.incomplete(saved.ID, err)
	}

	saved.Details = merged
	saved.PageImages = written.URLs
	saved.Thumbnail = written.Thumbnail
	telemetry.Info("analysis.saved", map[string]any{"analysis_id": saved.ID, "page_images": len(written.URLs)})
	return saved, nil
}

func (s *Service) incomplete(id int64, err error) error {
	telemetry.Error("analysis.artifacts_failed", map[string]any{"analysis_id": id, "error": err})
	return fmt.Errorf("%w: analysis %d: %v", ErrArtifactsIncomplete, id, err)
}

func intDetail(details map[string]any, key string, def int) int {
	switch v := details[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func boolDetail(details map[string]any, key string, def bool) bool {
	if v, ok := details[key].(bool); ok {
		return v
	}
	return def
}
