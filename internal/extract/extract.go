package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/telemetry"
)

// MinExtractedChars is the trimmed length a pass must reach to be accepted.
const MinExtractedChars = 40

// Pass names the extraction strategy that produced a Result.
type Pass string

const (
	PassNone          Pass = "none"
	PassDocument      Pass = "document"
	PassPages         Pass = "pages"
	PassContentStream Pass = "content_stream"
	PassOCR           Pass = "ocr"
)

// Result is the outcome of extracting a PDF. Images stays nil; page rendering
// happens later and only when a caller asks for it.
type Result struct {
	Text            string
	PageCount       int
	ImagesAvailable bool
	Pass            Pass
	Images          []Page
}

// Recognizer turns a rendered page into text.
type Recognizer interface {
	Recognize(ctx context.Context, page Page) (string, error)
}

// Engine runs the extraction passes in order and stops at the first one that
// produces at least MinExtractedChars of text.
type Engine struct {
	Renderer   *Renderer
	OCR        Recognizer
	OCREnabled bool
}

// NewEngine builds an engine with the default renderer. OCR is used only when
// enabled and a recognizer is supplied.
func NewEngine(ocr Recognizer, ocrEnabled bool) *Engine {
	return &Engine{Renderer: NewRenderer(), OCR: ocr, OCREnabled: ocrEnabled}
}

type pass struct {
	name Pass
	run  func() (string, error)
}

// Extract never fails: an unreadable document yields empty text and zero pages.
func (e *Engine) Extract(ctx context.Context, data []byte) Result {
	res := Result{Pass: PassNone}
	if len(data) == 0 {
		return res
	}

	res.PageCount = PageCount(data)
	res.ImagesAvailable = res.PageCount > 0

	passes := []pass{
		{PassDocument, func() (string, error) { return documentText(data) }},
		{PassPages, func() (string, error) { return pagesText(data) }},
		{PassContentStream, func() (string, error) { return contentStreamText(data) }},
	}
	if e.OCREnabled && e.OCR != nil {
		passes = append(passes, pass{PassOCR, func() (string, error) { return e.recognize(ctx, data) }})
	}

	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			telemetry.Warn("extract.cancelled", map[string]any{"pass": string(p.name), "error": err})
			return res
		}
		text, err := safely(p.run)
		if err != nil {
			telemetry.Warn("extract.pass_failed", map[string]any{"pass": string(p.name), "error": err})
			continue
		}
		if len(strings.TrimSpace(text)) >= MinExtractedChars {
			metrics.IncExtractionPass(string(p.name))
			res.Text = text
			res.Pass = p.name
			return res
		}
	}
	metrics.IncExtractionPass(string(PassNone))
	return res
}

// PageCount reports the number of pages, or 0 when the document cannot be parsed.
func PageCount(data []byte) int {
	if ctx, err := openPDF(data); err == nil && ctx.PageCount > 0 {
		return ctx.PageCount
	}
	n, err := safelyInt(func() (int, error) {
		r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return 0, err
		}
		return r.NumPage(), nil
	})
	if err != nil {
		return 0
	}
	return n
}

func (e *Engine) recognize(ctx context.Context, data []byte) (string, error) {
	pages := e.Renderer.Render(ctx, data, MaxImagePages)
	if len(pages) == 0 {
		return "", errors.New("no pages rendered for ocr")
	}
	var out []string
	for _, page := range pages {
		text, err := e.OCR.Recognize(ctx, page)
		if err != nil {
			telemetry.Warn("extract.ocr_page_failed", map[string]any{"page": page.Number, "error": err})
			continue
		}
		if t := strings.TrimSpace(text); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n"), nil
}

func documentText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func pagesText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		text, err := pageText(r, i)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

func pageText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", n, rec)
		}
	}()
	p := r.Page(n)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d: missing", n)
	}
	return p.GetPlainText(nil)
}

func openPDF(data []byte) (ctx *model.Context, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ctx, err = nil, fmt.Errorf("pdfcpu: %v", rec)
		}
	}()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err = api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx, nil
}

// safely runs a pass and converts a parser panic into an error.
func safely(fn func() (string, error)) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = "", fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}

func safelyInt(fn func() (int, error)) (out int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = 0, fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}
