package resumeanalysis

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/server/respond"
	"resume-analyzer/internal/shared/telemetry"
	"resume-analyzer/internal/shared/util"
)

const pdfMIME = "application/pdf"

// multipart envelope allowance on top of the file limit
const formOverhead = 1 << 20

var supportedFormats = []string{pdfMIME}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc          *Service
	MaxFileBytes int64
	MaxFileLabel string
}

// NewHandler constructs a Handler. label is the configured size as written, e.g. "50MB".
func NewHandler(svc *Service, maxFileBytes int64, label string) *Handler {
	return &Handler{Svc: svc, MaxFileBytes: maxFileBytes, MaxFileLabel: label}
}

// RegisterRoutes attaches resume routes to the router group. Extra handlers run
// before analyze only (rate limiting).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, analyzeMiddleware ...gin.HandlerFunc) {
	resume := rg.Group("/resume")
	resume.POST("/analyze", append(analyzeMiddleware, h.analyze)...)
	resume.POST("/check-capabilities", h.checkCapabilities)
	resume.GET("/config", h.config)
	resume.GET("/history", h.history)
	resume.GET("/history/export", h.exportHistory)
	resume.GET("/analysis/:id", h.get)
	resume.GET("/stats", h.stats)
	resume.GET("/image/:analysisId/:page", h.pageImage)
}

type upload struct {
	data        []byte
	filename    string
	contentType string
}

// readUpload validates the multipart file before any analysis runs. It writes
// the error response itself and returns ok=false on failure.
func (h *Handler) readUpload(c *gin.Context) (upload, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxFileBytes+formOverhead)

	fh, err := c.FormFile("resume")
	if errors.Is(err, http.ErrMissingFile) {
		fh, err = c.FormFile("file")
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(c, 0)
			return upload{}, false
		}
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "Please select a file to upload", nil)
		return upload{}, false
	}
	if fh.Size <= 0 {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "Please select a file to upload", nil)
		return upload{}, false
	}
	if fh.Size > h.MaxFileBytes {
		h.tooLarge(c, fh.Size)
		return upload{}, false
	}

	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
		return upload{}, false
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.MaxFileBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
		return upload{}, false
	}
	if int64(len(data)) > h.MaxFileBytes {
		h.tooLarge(c, int64(len(data)))
		return upload{}, false
	}

	declared := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" && !strings.HasPrefix(declared, pdfMIME) {
		h.unsupported(c, declared)
		return upload{}, false
	}
	if sniffed := mimetype.Detect(data); !sniffed.Is(pdfMIME) {
		h.unsupported(c, sniffed.String())
		return upload{}, false
	}

	name, err := util.SanitizeFileName(fh.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid file name", nil)
		return upload{}, false
	}
	return upload{data: data, filename: name, contentType: pdfMIME}, true
}

func (h *Handler) tooLarge(c *gin.Context, size int64) {
	respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge,
		fmt.Sprintf("File size should not exceed %s", h.MaxFileLabel),
		gin.H{"maxSize": h.MaxFileLabel, "maxSizeBytes": h.MaxFileBytes, "currentSize": formatFileSize(size)})
}

func (h *Handler) unsupported(c *gin.Context, got string) {
	respond.Error(c, http.StatusUnsupportedMediaType, ErrorCodeUnsupportedType,
		"Only PDF files are supported. Received: "+got,
		gin.H{"supportedFormats": supportedFormats})
}

func (h *Handler) analyze(c *gin.Context) {
	up, ok := h.readUpload(c)
	if !ok {
		return
	}
	userID := middleware.UserIDFromContext(c)

	res, err := h.Svc.Analyze(c.Request.Context(), Upload{
		OwnerID:  userID,
		Filename: up.filename,
		Size:     int64(len(up.data)),
		Data:     up.data,
	})
	if errors.Is(err, ErrInvalidInput) {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, err.Error(), nil)
		return
	}
	if err != nil {
		telemetry.Error("analysis.failed", map[string]any{
			"filename":   up.filename,
			"request_id": c.GetString("requestId"),
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "Error analyzing resume", nil)
		return
	}

	c.Set("analysisId", res.AnalysisID)
	c.Set("analysisMethod", string(res.Method))
	resp := res.Response
	respond.OK(c, gin.H{
		"success":       true,
		"overallScore":  resp.OverallScore,
		"scores":        resp.Scores,
		"suggestions":   resp.Suggestions,
		"details":       resp.Details,
		"extractedText": resp.ExtractedText,
		"fileInfo": gin.H{
			"filename":           up.filename,
			"size":               formatFileSize(int64(len(up.data))),
			"sizeBytes":          len(up.data),
			"contentType":        up.contentType,
			"canConvertToImages": res.PageCount > 0,
			"estimatedPages":     res.PageCount,
		},
		"analysisInfo": gin.H{
			"method":         string(res.Method),
			"isImageBased":   res.Method == MethodImage,
			"hasImages":      res.ImagePages > 0,
			"processingTime": res.ProcessingMs,
		},
		"maxAllowedSize": h.MaxFileLabel,
	})
}

func (h *Handler) checkCapabilities(c *gin.Context) {
	up, ok := h.readUpload(c)
	if !ok {
		return
	}
	caps := h.Svc.Capabilities(c.Request.Context(), up.data)
	respond.OK(c, gin.H{
		"success":      true,
		"capabilities": caps,
		"fileInfo": gin.H{
			"filename":    up.filename,
			"size":        formatFileSize(int64(len(up.data))),
			"sizeBytes":   len(up.data),
			"contentType": up.contentType,
		},
	})
}

func (h *Handler) config(c *gin.Context) {
	respond.OK(c, gin.H{
		"maxFileSize":         h.MaxFileLabel,
		"maxFileSizeBytes":    h.MaxFileBytes,
		"supportedFormats":    supportedFormats,
		"supportedExtensions": []string{".pdf"},
		"features": gin.H{
			"textAnalysis":     true,
			"imageAnalysis":    true,
			"fallbackAnalysis": true,
			"historyExport":    true,
		},
	})
}

func (h *Handler) history(c *gin.Context) {
	items, err := h.Svc.History(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to fetch history", nil)
		return
	}
	respond.OK(c, items)
}

func (h *Handler) exportHistory(c *gin.Context) {
	data, err := h.Svc.ExportHistory(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to export history", nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="resume-history.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid analysis id", nil)
		return
	}
	resp, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "analysis not found", nil)
		case errors.Is(err, ErrAccessDenied):
			respond.Error(c, http.StatusForbidden, ErrorCodeForbidden, "access denied", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to fetch analysis", nil)
		}
		return
	}
	respond.OK(c, gin.H{"success": true, "analysis": resp})
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.Svc.Stats(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to fetch stats", nil)
		return
	}
	respond.OK(c, gin.H{
		"success":           true,
		"totalAnalyses":     st.TotalAnalyses,
		"averageScore":      st.AverageScore,
		"bestScore":         st.BestScore,
		"improvementTrend":  st.ImprovementTrend,
		"improvementPoints": st.ImprovementPoints,
		"hasAnalyzedToday":  st.HasAnalyzedToday,
	})
}

func (h *Handler) pageImage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("analysisId"), 10, 64)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	rc, err := h.Svc.PageImage(c.Request.Context(), middleware.UserIDFromContext(c), id, page)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.Status(http.StatusNotFound)
			return
		case errors.Is(err, ErrAccessDenied):
			c.Status(http.StatusForbidden)
			return
		}
		telemetry.Error("analysis.image_failed", map[string]any{"analysis_id": id, "page": page, "error": err.Error()})
		c.Status(http.StatusInternalServerError)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, -1, "image/png", rc, nil)
}

func formatFileSize(bytes int64) string {
	switch {
	case bytes < 1<<10:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(bytes)/(1<<10))
	case bytes < 1<<30:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
	default:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(1<<30))
	}
}
