package resumeanalysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/interpret"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/scoring"
	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/storage/object"
	"resume-analyzer/internal/shared/telemetry"
)

const defaultAnalysisVersion = "1.0"

// Extractor pulls text out of a document.
type Extractor interface {
	Extract(ctx context.Context, data []byte) extract.Result
}

// Service runs the analysis pipeline and serves stored analyses.
type Service struct {
	Repo            Repo
	Extractor       Extractor
	Renderer        PageRenderer
	Artifacts       *ArtifactWriter
	LLM             llm.Client
	AnalysisVersion string
	MaxImagePages   int

	now func() time.Time
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Service) maxPages() int {
	if s.MaxImagePages > 0 {
		return s.MaxImagePages
	}
	return extract.MaxImagePages
}

// Analyze scores one uploaded document and persists the result. Only
// persistence errors are returned; extraction and model failures fall back.
func (s *Service) Analyze(ctx context.Context, up Upload) (Result, error) {
	if strings.TrimSpace(up.OwnerID) == "" {
		return Result{}, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	start := s.clock()
	metrics.IncAnalysisStarted()

	extraction := s.Extractor.Extract(ctx, up.Data)
	meaningful := extract.IsMeaningful(extraction.Text)
	telemetry.Info("analysis.extract", map[string]any{
		"filename":    up.Filename,
		"pass":        string(extraction.Pass),
		"chars":       len(extraction.Text),
		"pages":       extraction.PageCount,
		"meaningful":  meaningful,
		"images_seen": extraction.ImagesAvailable,
	})

	plan := Decide(meaningful, extraction.ImagesAvailable)
	telemetry.Info("analysis.plan", map[string]any{"method": string(plan.Method), "requires_images": plan.RequiresImages})

	if plan.RequiresImages && extraction.Images == nil && s.Renderer != nil {
		extraction.Images = s.Renderer.Render(ctx, up.Data, s.maxPages())
	}

	resp, method := s.score(ctx, plan, extraction)

	text := resp.ExtractedText
	if strings.TrimSpace(text) == "" {
		text = extraction.Text
	}
	sanitized := interpret.Sanitize(text)
	resp.ExtractedText = sanitized

	elapsed := s.clock().Sub(start).Milliseconds()
	if resp.Details == nil {
		resp.Details = map[string]any{}
	}
	addCommonDetails(resp.Details, method, len(extraction.Images), sanitized, elapsed)
	resp.Details["summary"] = s.summary(ctx, sanitized)

	saved, err := s.Save(ctx, SaveInput{
		OwnerID:       up.OwnerID,
		Filename:      up.Filename,
		Size:          up.Size,
		Document:      up.Data,
		Pages:         extraction.Images,
		Response:      resp,
		SanitizedText: sanitized,
		ProcessingMs:  elapsed,
		Version:       s.version(),
	})
	if err != nil {
		metrics.IncAnalysisFailed("persist")
		return Result{}, err
	}

	resp.Details = saved.Details
	resp.Details["analysisId"] = saved.ID
	metrics.IncAnalysisCompleted(string(method))
	metrics.ObserveAnalysisDurationMs(string(method), float64(elapsed))
	telemetry.Info("analysis.done", map[string]any{
		"analysis_id":   saved.ID,
		"method":        string(method),
		"overall_score": resp.OverallScore,
		"text_chars":    len(sanitized),
		"duration_ms":   elapsed,
	})

	return Result{
		Response:     resp,
		AnalysisID:   saved.ID,
		Method:       method,
		PageCount:    extraction.PageCount,
		ImagePages:   len(extraction.Images),
		ProcessingMs: elapsed,
	}, nil
}

// score runs the planned path. A panic anywhere in it becomes the enhanced
// fallback.
func (s *Service) score(ctx context.Context, plan Plan, ex extract.Result) (resp scoring.Response, method Method) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("analysis.panic", map[string]any{"method": string(plan.Method), "panic": fmt.Sprint(r)})
			resp, method = scoring.EnhancedFallback(ex.Text), MethodFallback
		}
	}()

	switch plan.Method {
	case MethodText:
		return s.textAnalysis(ctx, ex.Text)
	case MethodImage:
		return s.imageAnalysis(ctx, ex.Images), MethodImage
	default:
		return scoring.EnhancedFallback(ex.Text), MethodFallback
	}
}

func (s *Service) textAnalysis(ctx context.Context, text string) (scoring.Response, Method) {
	raw, err := s.generate(ctx, llm.Request{Prompt: llm.AnalysisPrompt(text)})
	if err != nil || strings.TrimSpace(raw) == "" {
		telemetry.Warn("analysis.text_ai_failed", map[string]any{"error": errString(err)})
		return scoring.CombineWithNeutral(text), MethodFallback
	}
	return interpret.Enrich(interpret.Parse(raw), text), MethodText
}

func (s *Service) imageAnalysis(ctx context.Context, pages []extract.Page) scoring.Response {
	if len(pages) == 0 {
		return scoring.ImageFallback()
	}
	req := llm.Request{Prompt: llm.ImagePrompt()}
	for _, p := range pages {
		data, err := p.PNG()
		if err != nil {
			continue
		}
		req.Images = append(req.Images, llm.PNG(data))
	}
	if len(req.Images) == 0 {
		return scoring.ImageFallback()
	}
	raw, err := s.generate(ctx, req)
	if err != nil || strings.TrimSpace(raw) == "" {
		telemetry.Warn("analysis.image_ai_failed", map[string]any{"error": errString(err), "pages": len(req.Images)})
		return scoring.ImageFallback()
	}
	return interpret.Enrich(interpret.Parse(raw), "")
}

func (s *Service) summary(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	raw, err := s.generate(ctx, llm.Request{Prompt: llm.SummaryPrompt(text)})
	if err != nil {
		telemetry.Warn("analysis.summary_failed", map[string]any{"error": err})
		return ""
	}
	out, err := interpret.ResponseText(raw)
	if err != nil {
		return ""
	}
	return out
}

func (s *Service) generate(ctx context.Context, req llm.Request) (string, error) {
	if s.LLM == nil {
		return "", llm.ErrNotConfigured
	}
	return s.LLM.Generate(ctx, req)
}

func (s *Service) version() string {
	if v := strings.TrimSpace(s.AnalysisVersion); v != "" {
		return v
	}
	return defaultAnalysisVersion
}

func addCommonDetails(details map[string]any, method Method, imagePages int, text string, elapsedMs int64) {
	details["analysisMethod"] = string(method)
	details["isImageBased"] = method == MethodImage
	details["hasTextContent"] = strings.TrimSpace(text) != ""
	details["imagePages"] = imagePages
	details["processingTimeMs"] = elapsedMs
	if _, ok := details["wordCount"]; !ok {
		details["wordCount"] = scoring.WordCount(text)
	}
}

// History lists an owner's analyses, newest first.
func (s *Service) History(ctx context.Context, ownerID string) ([]HistoryItem, error) {
	recs, err := s.Repo.ListByOwner(ctx, ownerID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryItem, 0, len(recs))
	for _, rec := range recs {
		out = append(out, historyItem(rec))
	}
	return out, nil
}

func historyItem(rec Record) HistoryItem {
	item := HistoryItem{
		ID:           rec.ID,
		Filename:     rec.Filename,
		OverallScore: rec.OverallScore,
		CreatedAt:    rec.CreatedAt,
		PageImages:   rec.PageImages,
	}
	if summary, ok := rec.Details["summary"].(string); ok {
		item.Summary = summary
	}
	if item.PageImages == nil {
		item.PageImages = []string{}
	}
	return item
}

// Get returns one analysis owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID string, id int64) (scoring.Response, error) {
	rec, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return scoring.Response{}, err
	}
	if rec.OwnerID != ownerID {
		return scoring.Response{}, ErrAccessDenied
	}
	resp := rec.ToResponse()
	details := make(map[string]any, len(resp.Details)+5)
	for k, v := range resp.Details {
		details[k] = v
	}
	details["analysisId"] = rec.ID
	details["filename"] = rec.Filename
	details["fileSize"] = rec.FileSize
	details["createdAt"] = rec.CreatedAt
	details["processingTimeMs"] = rec.ProcessingTimeMs
	resp.Details = details
	return resp, nil
}

// Stats aggregates an owner's analyses.
func (s *Service) Stats(ctx context.Context, ownerID string) (Stats, error) {
	recs, err := s.Repo.ListByOwner(ctx, ownerID, 0)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{TotalAnalyses: len(recs), ImprovementTrend: "insufficient_data"}
	if len(recs) == 0 {
		return st, nil
	}

	total := 0
	now := s.clock().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, rec := range recs {
		total += rec.OverallScore
		if rec.OverallScore > st.BestScore {
			st.BestScore = rec.OverallScore
		}
		created := rec.CreatedAt.UTC()
		if !created.Before(dayStart) && created.Before(dayStart.Add(24*time.Hour)) {
			st.HasAnalyzedToday = true
		}
	}
	st.AverageScore = total / len(recs)

	if len(recs) >= 2 {
		latest, previous := recs[0].OverallScore, recs[1].OverallScore
		switch {
		case latest > previous:
			st.ImprovementTrend = "improving"
		case latest < previous:
			st.ImprovementTrend = "declining"
		default:
			st.ImprovementTrend = "stable"
		}
		st.ImprovementPoints = latest - previous
	}
	return st, nil
}

// PageImage opens a stored page PNG of an analysis owned by ownerID. The
// caller closes the reader.
func (s *Service) PageImage(ctx context.Context, ownerID string, analysisID int64, page int) (io.ReadCloser, error) {
	if page < 1 {
		return nil, ErrNotFound
	}
	rec, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != ownerID {
		return nil, ErrAccessDenied
	}
	rc, err := s.Artifacts.Open(ctx, rec.OwnerID, analysisID, page)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rc, nil
}

// Capabilities reports how a document would be analyzed without scoring it.
func (s *Service) Capabilities(ctx context.Context, data []byte) Capabilities {
	ex := s.Extractor.Extract(ctx, data)
	meaningful := extract.IsMeaningful(ex.Text)
	plan := Decide(meaningful, ex.ImagesAvailable)
	return Capabilities{
		PageCount:          ex.PageCount,
		HasSelectableText:  strings.TrimSpace(ex.Text) != "",
		TextMeaningful:     meaningful,
		CanConvertToImages: ex.ImagesAvailable,
		RecommendedMethod:  plan.Method,
		ExtractedChars:     len(ex.Text),
	}
}

func errString(err error) string {
	if err == nil {
		return "empty response"
	}
	return err.Error()
}
