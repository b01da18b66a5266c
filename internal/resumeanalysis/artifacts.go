package resumeanalysis

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/shared/storage/object"
	"resume-analyzer/internal/shared/util"
)

// ThumbnailWidth is the maximum width of the stored first-page thumbnail.
const ThumbnailWidth = 320

// PageRenderer rasterizes the first pages of a document.
type PageRenderer interface {
	Render(ctx context.Context, data []byte, maxPages int) []extract.Page
}

// ArtifactWriter stores rendered pages for a saved analysis.
type ArtifactWriter struct {
	Store    object.Store
	Renderer PageRenderer
	MaxPages int
}

// WrittenPages is what ArtifactWriter.Write produced.
type WrittenPages struct {
	URLs      []string
	Thumbnail *Thumbnail
}

// PageURL is the public path of a stored page image.
func PageURL(analysisID int64, page int) string {
	return fmt.Sprintf("/api/resume/image/%d/%d", analysisID, page)
}

// Write renders the document (unless pages were already rendered for the
// image path) and stores each page as PNG. A downscaled copy of the first page
// becomes the thumbnail.
func (w *ArtifactWriter) Write(ctx context.Context, ownerID string, analysisID int64, doc []byte, pages []extract.Page) (WrittenPages, error) {
	limit := w.MaxPages
	if limit <= 0 {
		limit = extract.MaxImagePages
	}
	if pages == nil && w.Renderer != nil {
		pages = w.Renderer.Render(ctx, doc, limit)
	}
	if len(pages) > limit {
		pages = pages[:limit]
	}

	out := WrittenPages{URLs: []string{}}
	ownerKey := util.HashUserKey(ownerID)
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		data, err := p.PNG()
		if err != nil {
			return out, fmt.Errorf("encode page %d: %w", p.Number, err)
		}
		key := object.PageKey(ownerKey, analysisID, p.Number)
		if _, err := w.Store.Put(ctx, key, "image/png", bytes.NewReader(data)); err != nil {
			return out, fmt.Errorf("store page %d: %w", p.Number, err)
		}
		out.URLs = append(out.URLs, PageURL(analysisID, p.Number))
		if out.Thumbnail == nil {
			thumb, err := makeThumbnail(p.Image, ThumbnailWidth)
			if err != nil {
				return out, fmt.Errorf("thumbnail page %d: %w", p.Number, err)
			}
			out.Thumbnail = thumb
		}
	}
	return out, nil
}

// makeThumbnail scales img to maxWidth, keeping the aspect ratio. Images
// already narrower are encoded as they are.
func makeThumbnail(img image.Image, maxWidth int) (*Thumbnail, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty image %dx%d", w, h)
	}
	src := img
	if w > maxWidth {
		h = h * maxWidth / w
		if h < 1 {
			h = 1
		}
		w = maxWidth
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		src = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, err
	}
	return &Thumbnail{Data: buf.Bytes(), MIMEType: "image/png", Width: w, Height: h}, nil
}

// Open returns a stored page image.
func (w *ArtifactWriter) Open(ctx context.Context, ownerID string, analysisID int64, page int) (io.ReadCloser, error) {
	return w.Store.Open(ctx, object.PageKey(util.HashUserKey(ownerID), analysisID, page))
}
