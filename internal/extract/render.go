package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"
	"strings"

	// Decoders for embedded page images.
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"resume-analyzer/internal/shared/telemetry"
)

const (
	// MaxImagePages caps how many pages are rendered per document.
	MaxImagePages = 5
	// ImageDPI is the target raster density.
	ImageDPI = 200

	pointsPerInch = 72
	textMargin    = 36
	lineHeight    = 14
	wrapColumns   = 90
)

var letterSize = types.Dim{Width: 612, Height: 792}

// Page is one rendered page. Number is 1-based.
type Page struct {
	Number int
	Image  image.Image
	Width  int
	Height int
}

// PNG encodes the page raster.
func (p Page) PNG() ([]byte, error) {
	if p.Image == nil {
		return nil, errors.New("page has no image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.Image); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", p.Number, err)
	}
	return buf.Bytes(), nil
}

// Renderer rasterizes PDF pages. Embedded page images are composited onto a
// white canvas sized from the page box; pages without images get their text
// layer drawn instead.
type Renderer struct {
	DPI int
}

func NewRenderer() *Renderer {
	return &Renderer{DPI: ImageDPI}
}

// Render returns up to maxPages pages. Pages that fail are skipped, so the
// result may be empty but is never nil.
func (r *Renderer) Render(ctx context.Context, data []byte, maxPages int) []Page {
	pages := []Page{}
	if maxPages <= 0 || len(data) == 0 {
		return pages
	}
	doc, err := openPDF(data)
	if err != nil {
		telemetry.Warn("render.open_failed", map[string]any{"error": err})
		return pages
	}
	dims, err := doc.PageDims()
	if err != nil {
		dims = nil
	}
	textReader, _ := openTextReader(data)

	limit := doc.PageCount
	if limit > maxPages {
		limit = maxPages
	}
	for n := 1; n <= limit; n++ {
		if ctx.Err() != nil {
			break
		}
		dim := letterSize
		if n-1 < len(dims) && dims[n-1].Width > 0 && dims[n-1].Height > 0 {
			dim = dims[n-1]
		}
		page, err := r.renderPage(doc, textReader, n, dim)
		if err != nil {
			telemetry.Warn("render.page_failed", map[string]any{"page": n, "error": err})
			continue
		}
		pages = append(pages, page)
	}
	return pages
}

func (r *Renderer) renderPage(doc *model.Context, textReader *pdf.Reader, n int, dim types.Dim) (page Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic rendering page %d: %v", n, rec)
		}
	}()

	dpi := r.DPI
	if dpi <= 0 {
		dpi = ImageDPI
	}
	scale := float64(dpi) / pointsPerInch
	w, h := int(dim.Width*scale), int(dim.Height*scale)
	if w <= 0 || h <= 0 {
		return Page{}, fmt.Errorf("page %d: invalid dimensions %vx%v", n, dim.Width, dim.Height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	drawn := drawEmbeddedImages(canvas, decodePageImages(doc, n))
	if !drawn {
		text := ""
		if textReader != nil {
			text, _ = pageText(textReader, n)
		}
		if strings.TrimSpace(text) == "" {
			text = streamPageText(doc, n)
		}
		drawn = drawText(canvas, text, dim)
	}
	if !drawn {
		return Page{}, fmt.Errorf("page %d: nothing drawable", n)
	}
	return Page{Number: n, Image: canvas, Width: w, Height: h}, nil
}

func decodePageImages(doc *model.Context, n int) []image.Image {
	found, err := pdfcpu.ExtractPageImages(doc, n, false)
	if err != nil || len(found) == 0 {
		return nil
	}
	keys := make([]int, 0, len(found))
	for k := range found {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var out []image.Image
	for _, k := range keys {
		img, _, err := image.Decode(found[k])
		if err != nil {
			telemetry.Warn("render.image_decode_failed", map[string]any{
				"page":     n,
				"objNr":    k,
				"fileType": found[k].FileType,
				"error":    err,
			})
			continue
		}
		out = append(out, img)
	}
	return out
}

// drawEmbeddedImages stacks the images top to bottom at full canvas width and
// shrinks the stack to fit the page height.
func drawEmbeddedImages(canvas *image.RGBA, imgs []image.Image) bool {
	if len(imgs) == 0 {
		return false
	}
	cw, ch := canvas.Bounds().Dx(), canvas.Bounds().Dy()

	heights := make([]float64, len(imgs))
	total := 0.0
	for i, img := range imgs {
		b := img.Bounds()
		if b.Dx() == 0 {
			continue
		}
		heights[i] = float64(b.Dy()) * float64(cw) / float64(b.Dx())
		total += heights[i]
	}
	if total <= 0 {
		return false
	}
	fit := 1.0
	if total > float64(ch) {
		fit = float64(ch) / total
	}

	y := 0
	for i, img := range imgs {
		dh := int(heights[i] * fit)
		dw := int(float64(cw) * fit)
		if dh <= 0 || dw <= 0 {
			continue
		}
		x := (cw - dw) / 2
		dst := image.Rect(x, y, x+dw, y+dh)
		draw.CatmullRom.Scale(canvas, dst, img, img.Bounds(), draw.Over, nil)
		y += dh
	}
	return true
}

// drawText lays the text out at 72 DPI with a fixed-width face, then scales
// the result onto the canvas.
func drawText(canvas *image.RGBA, text string, dim types.Dim) bool {
	lines := wrapLines(text, wrapColumns)
	if len(lines) == 0 {
		return false
	}
	base := image.NewRGBA(image.Rect(0, 0, int(dim.Width), int(dim.Height)))
	draw.Draw(base, base.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  base,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
	}
	y := textMargin + lineHeight
	for _, line := range lines {
		if y > base.Bounds().Dy()-textMargin {
			break
		}
		d.Dot = fixed.P(textMargin, y)
		d.DrawString(line)
		y += lineHeight
	}
	draw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), base, base.Bounds(), draw.Src, nil)
	return true
}

func wrapLines(text string, width int) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		words := strings.Fields(raw)
		var line strings.Builder
		for _, w := range words {
			if line.Len() > 0 && line.Len()+1+len(w) > width {
				out = append(out, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(w)
		}
		if line.Len() > 0 {
			out = append(out, line.String())
		}
	}
	return out
}

func openTextReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}
