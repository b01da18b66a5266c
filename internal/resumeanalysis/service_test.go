package resumeanalysis

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/scoring"
	"resume-analyzer/internal/shared/storage/object"
	"resume-analyzer/internal/shared/storage/object/local"
)

const scenarioText = "Experienced Java engineer. Email: a@b.com. Skills: Java, SQL. Experience: 3 years at X. Education: BSc CS."

var paddedScenarioText = scenarioText + " Built payment services, led a team of four engineers, and shipped weekly releases with automated testing."

type stubExtractor struct {
	result extract.Result
}

func (s stubExtractor) Extract(context.Context, []byte) extract.Result {
	return s.result
}

type stubRenderer struct {
	pages int
	calls int
}

func (r *stubRenderer) Render(_ context.Context, _ []byte, maxPages int) []extract.Page {
	r.calls++
	n := r.pages
	if n > maxPages {
		n = maxPages
	}
	out := make([]extract.Page, 0, n)
	for i := 1; i <= n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 4, 6))
		img.Set(1, 1, color.Black)
		out = append(out, extract.Page{Number: i, Image: img, Width: 4, Height: 6})
	}
	return out
}

type fakeLLM struct {
	mu       sync.Mutex
	analysis func(llm.Request) (string, error)
	summary  string
	requests []llm.Request
}

func (f *fakeLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if strings.HasPrefix(req.Prompt, "Summarize") {
		if f.summary == "" {
			return "", errors.New("summary unavailable")
		}
		return f.summary, nil
	}
	if f.analysis == nil {
		return "", errors.New("model timeout")
	}
	return f.analysis(req)
}

func (f *fakeLLM) analysisCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if !strings.HasPrefix(r.Prompt, "Summarize") {
			n++
		}
	}
	return n
}

type failingStore struct{}

func (failingStore) Put(context.Context, string, string, io.Reader) (int64, error) {
	return 0, errors.New("disk full")
}

func (failingStore) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, object.ErrNotFound
}

func newTestService(t *testing.T, ex extract.Result, client llm.Client, renderer *stubRenderer) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	svc := &Service{
		Repo:      repo,
		Extractor: stubExtractor{result: ex},
		Renderer:  renderer,
		Artifacts: &ArtifactWriter{Store: local.New(t.TempDir()), Renderer: renderer},
		LLM:       client,
	}
	return svc, repo
}

func TestAnalyzeTextPathUsesHeuristicScoresWhenModelOmitsThem(t *testing.T) {
	client := &fakeLLM{
		analysis: func(llm.Request) (string, error) {
			return `{"overallScore":0,"suggestions":[{"title":"Quantify","severity":"high"}]}`, nil
		},
		summary: "Java engineer with SQL skills.",
	}
	renderer := &stubRenderer{pages: 2}
	svc, repo := newTestService(t, extract.Result{Text: paddedScenarioText, PageCount: 2, ImagesAvailable: true, Pass: extract.PassDocument}, client, renderer)

	res, err := svc.Analyze(context.Background(), Upload{OwnerID: "u1", Filename: "cv.pdf", Size: 10, Data: []byte("%PDF")})
	require.NoError(t, err)

	assert.Equal(t, MethodText, res.Method)
	scores := res.Response.Scores
	assert.GreaterOrEqual(t, scores[scoring.Contact], 40)
	assert.GreaterOrEqual(t, scores[scoring.Skills], 70)
	assert.GreaterOrEqual(t, scores[scoring.Experience], 70)
	assert.GreaterOrEqual(t, scores[scoring.Education], 70)
	assert.Equal(t, scores.Mean(), res.Response.OverallScore)
	assert.Equal(t, "text", res.Response.Details["analysisMethod"])
	assert.Equal(t, "Java engineer with SQL skills.", res.Response.Details["summary"])
	assert.Equal(t, res.AnalysisID, res.Response.Details["analysisId"])
	assert.Equal(t, 1, renderer.calls, "pages are rendered once, at save time")

	rec, err := repo.GetByID(context.Background(), res.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/api/resume/image/1/1", "/api/resume/image/1/2"}, rec.PageImages)
	require.NotNil(t, rec.Thumbnail)
	assert.Equal(t, "image/png", rec.Thumbnail.MIMEType)
	assert.Equal(t, 4, rec.Thumbnail.Width, "narrow pages are not upscaled")
	assert.Len(t, rec.Scores, len(scoring.Dimensions))
}

func TestMakeThumbnailDownscalesLetterPage(t *testing.T) {
	page := image.NewRGBA(image.Rect(0, 0, 1700, 2200))
	thumb, err := makeThumbnail(page, ThumbnailWidth)
	require.NoError(t, err)

	assert.Equal(t, ThumbnailWidth, thumb.Width)
	assert.Equal(t, 414, thumb.Height)
	decoded, err := png.Decode(bytes.NewReader(thumb.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 414), decoded.Bounds())

	_, err = makeThumbnail(image.NewRGBA(image.Rectangle{}), ThumbnailWidth)
	assert.Error(t, err)
}

func TestAnalyzeEmptyDocumentUsesFallback(t *testing.T) {
	renderer := &stubRenderer{}
	svc, repo := newTestService(t, extract.Result{Pass: extract.PassNone}, llm.PlaceholderClient{}, renderer)

	res, err := svc.Analyze(context.Background(), Upload{OwnerID: "u1", Filename: "empty.pdf"})
	require.NoError(t, err)

	assert.Equal(t, MethodFallback, res.Method)
	assert.Equal(t, scoring.NoTextFallbackOverall, res.Response.OverallScore)
	assert.Equal(t, "", res.Response.ExtractedText)
	assert.Equal(t, "", res.Response.Details["summary"])
	assert.Equal(t, false, res.Response.Details["hasTextContent"])

	rec, err := repo.GetByID(context.Background(), res.AnalysisID)
	require.NoError(t, err)
	assert.Empty(t, rec.PageImages)
	assert.Nil(t, rec.Thumbnail)
}

func TestAnalyzeModelFailingAllAttemptsFallsBackToNeutral(t *testing.T) {
	client := &fakeLLM{}
	retrying := llm.WithRetry(client, "test", llm.DefaultMaxAttempts, time.Millisecond)
	svc, _ := newTestService(t, extract.Result{Text: paddedScenarioText, PageCount: 1, ImagesAvailable: true}, retrying, &stubRenderer{pages: 1})

	res, err := svc.Analyze(context.Background(), Upload{OwnerID: "u1", Filename: "cv.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	assert.Equal(t, llm.DefaultMaxAttempts, client.analysisCalls())
	assert.Equal(t, MethodFallback, res.Method)
	assert.Equal(t, "fallback", res.Response.Details["analysisMethod"])
	assert.Equal(t, scoring.NeutralAI().Scores.Complete(), res.Response.Scores)
	assert.Equal(t, scoring.NeutralAIOverall, res.Response.OverallScore)
	assert.Equal(t, "", res.Response.Details["summary"])
}

func TestAnalyzeImagePathSendsRenderedPages(t *testing.T) {
	client := &fakeLLM{
		analysis: func(req llm.Request) (string, error) {
			if len(req.Images) == 0 {
				return "", errors.New("expected images")
			}
			return `{"overallScore":66,"scores":{"content":70,"contact":60,"skills":65,"experience":70,"education":60,"formatting":75,"keywords":55,"structure":70},"extractedText":"Scanned Resume"}`, nil
		},
	}
	renderer := &stubRenderer{pages: 3}
	svc, _ := newTestService(t, extract.Result{Text: "", PageCount: 3, ImagesAvailable: true}, client, renderer)

	res, err := svc.Analyze(context.Background(), Upload{OwnerID: "u1", Filename: "scan.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	assert.Equal(t, MethodImage, res.Method)
	assert.Equal(t, 66, res.Response.OverallScore)
	assert.Equal(t, true, res.Response.Details["isImageBased"])
	assert.Equal(t, 3, res.Response.Details["imagePages"])
	assert.Equal(t, "Scanned Resume", res.Response.ExtractedText)
	assert.Equal(t, 1, renderer.calls, "rendered pages are reused for artifacts")
}

func TestAnalyzeImagePathModelFailure(t *testing.T) {
	svc, _ := newTestService(t, extract.Result{PageCount: 1, ImagesAvailable: true}, &fakeLLM{}, &stubRenderer{pages: 1})

	res, err := svc.Analyze(context.Background(), Upload{OwnerID: "u1", Filename: "scan.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, scoring.ImageFallbackOverall, res.Response.OverallScore)
	assert.Equal(t, "image", res.Response.Details["analysisMethod"])
}

func TestAnalyzeSanitizesDiagnosticText(t *testing.T) {
	client := &fakeLLM{analysis: func(llm.Request) (string, error) {
		return `{"overallScore":50,"extractedText":"Fallback analysis: unable to extract"}`, nil
	}}
	svc, _ := newTestService(t, extract.Result{Text: paddedScenarioText, PageCount: 1, ImagesAvailable: true}, client, &stubRenderer{})

	res, err := svc.Analyze(context.Background(), Upload{OwnerID: "u1", Filename: "cv.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "", res.Response.ExtractedText)
	assert.Equal(t, false, res.Response.Details["hasTextContent"])
}

func TestAnalyzeRecoversFromPanickingModel(t *testing.T) {
	client := &fakeLLM{analysis: func(llm.Request) (string, error) { panic("boom") }}
	svc, _ := newTestService(t, extract.Result{Text: paddedScenarioText, PageCount: 1, ImagesAvailable: true}, client, &stubRenderer{})

	res, err := svc.Analyze(context.Background(), Upload{OwnerID: "u1", Filename: "cv.pdf"})
	require.NoError(t, err)
	assert.Equal(t, MethodFallback, res.Method)
	assert.Equal(t, scoring.WithTextFallbackOverall, res.Response.OverallScore)
}

func TestAnalyzeArtifactFailureKeepsFirstPhaseRow(t *testing.T) {
	renderer := &stubRenderer{pages: 1}
	repo := NewMemoryRepo()
	svc := &Service{
		Repo:      repo,
		Extractor: stubExtractor{result: extract.Result{Text: paddedScenarioText, PageCount: 1, ImagesAvailable: true}},
		Renderer:  renderer,
		Artifacts: &ArtifactWriter{Store: failingStore{}, Renderer: renderer},
	}

	_, err := svc.Analyze(context.Background(), Upload{OwnerID: "u1", Filename: "cv.pdf", Data: []byte("%PDF")})
	require.ErrorIs(t, err, ErrArtifactsIncomplete)

	recs, err := repo.ListByOwner(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].PageImages)
}

func TestAnalyzeRequiresOwner(t *testing.T) {
	svc, repo := newTestService(t, extract.Result{}, nil, &stubRenderer{})
	_, err := svc.Analyze(context.Background(), Upload{Filename: "cv.pdf"})
	require.ErrorIs(t, err, ErrInvalidInput)

	recs, _ := repo.ListByOwner(context.Background(), "", 0)
	assert.Empty(t, recs)
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _ := newTestService(t, extract.Result{}, nil, &stubRenderer{})
	res, err := svc.Analyze(context.Background(), Upload{OwnerID: "owner", Filename: "a.pdf"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "someone-else", res.AnalysisID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	got, err := svc.Get(context.Background(), "owner", res.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", got.Details["filename"])
	assert.Equal(t, res.AnalysisID, got.Details["analysisId"])

	_, err = svc.Get(context.Background(), "owner", 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryAndStats(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	svc := &Service{Repo: repo, now: func() time.Time { return now }}
	ctx := context.Background()

	empty, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "insufficient_data", empty.ImprovementTrend)

	for i, score := range []int{50, 70, 64} {
		_, err := repo.Create(ctx, Record{
			OwnerID:      "u1",
			Filename:     "cv.pdf",
			OverallScore: score,
			Details:      map[string]any{"summary": "s"},
			CreatedAt:    now.Add(time.Duration(i-2) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	hist, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, 64, hist[0].OverallScore)
	assert.Equal(t, "s", hist[0].Summary)
	assert.NotNil(t, hist[0].PageImages)

	st, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalAnalyses)
	assert.Equal(t, 61, st.AverageScore)
	assert.Equal(t, 70, st.BestScore)
	assert.Equal(t, "declining", st.ImprovementTrend)
	assert.Equal(t, -6, st.ImprovementPoints)
	assert.True(t, st.HasAnalyzedToday)
}

func TestPageImage(t *testing.T) {
	renderer := &stubRenderer{pages: 1}
	svc, _ := newTestService(t, extract.Result{Text: paddedScenarioText, PageCount: 1, ImagesAvailable: true}, nil, renderer)
	res, err := svc.Analyze(context.Background(), Upload{OwnerID: "u1", Filename: "cv.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	rc, err := svc.PageImage(context.Background(), "u1", res.AnalysisID, 1)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\x89PNG"))

	_, err = svc.PageImage(context.Background(), "u1", res.AnalysisID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.PageImage(context.Background(), "u1", 404, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.PageImage(context.Background(), "u2", res.AnalysisID, 1)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestCapabilities(t *testing.T) {
	svc := &Service{Extractor: stubExtractor{result: extract.Result{Text: "short", PageCount: 2, ImagesAvailable: true}}}
	caps := svc.Capabilities(context.Background(), nil)
	assert.Equal(t, 2, caps.PageCount)
	assert.True(t, caps.HasSelectableText)
	assert.False(t, caps.TextMeaningful)
	assert.Equal(t, MethodImage, caps.RecommendedMethod)
}
