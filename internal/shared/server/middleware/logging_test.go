package middleware

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
)

// serveAndCollectLogs runs one request and returns the decoded JSON log lines
// written to stdout while it was served.
func serveAndCollectLogs(t *testing.T, router *gin.Engine, req *http.Request) []map[string]any {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	router.ServeHTTP(httptest.NewRecorder(), req)
	os.Stdout = orig
	_ = w.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var line map[string]any
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			t.Fatalf("decode log line %q: %v", sc.Text(), err)
		}
		lines = append(lines, line)
	}
	return lines
}

func requestLog(t *testing.T, lines []map[string]any) map[string]any {
	t.Helper()
	for _, l := range lines {
		if l["msg"] == "request.complete" {
			return l
		}
	}
	t.Fatalf("no request.complete line in %v", lines)
	return nil
}

func newLoggedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logging(), Auth())
	r.POST("/api/resume/analyze", func(c *gin.Context) {
		c.Set("analysisId", int64(41))
		c.Set("analysisMethod", "image")
		c.Status(http.StatusOK)
	})
	r.GET("/api/resume/stats", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestLoggingRecordsAnalysisOutcome(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/resume/analyze", nil)
	req.Header.Set("X-Guest-Id", "visitor")
	req.Header.Set("X-Request-Id", "req-analyze-1")

	line := requestLog(t, serveAndCollectLogs(t, newLoggedRouter(), req))

	want := map[string]any{
		"request_id":      "req-analyze-1",
		"method":          http.MethodPost,
		"path":            "/api/resume/analyze",
		"status":          float64(http.StatusOK),
		"user_id":         "guest:visitor",
		"is_guest":        true,
		"analysis_id":     float64(41),
		"analysis_method": "image",
	}
	for key, v := range want {
		if line[key] != v {
			t.Fatalf("%s: expected %v, got %v", key, v, line[key])
		}
	}
	if _, ok := line["duration_ms"].(float64); !ok {
		t.Fatalf("expected numeric duration_ms, got %v", line["duration_ms"])
	}
}

func TestLoggingWithoutAnalysisLeavesFieldsEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/resume/stats", nil)
	req.Header.Set("X-Guest-Id", "visitor")

	line := requestLog(t, serveAndCollectLogs(t, newLoggedRouter(), req))
	if line["analysis_method"] != "" || line["analysis_id"] != nil {
		t.Fatalf("expected empty analysis fields, got method=%v id=%v", line["analysis_method"], line["analysis_id"])
	}
}

func TestLoggingRecordsRejectedRequests(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/resume/stats", nil)

	line := requestLog(t, serveAndCollectLogs(t, newLoggedRouter(), req))
	if line["status"] != float64(http.StatusUnauthorized) || line["user_id"] != nil {
		t.Fatalf("expected anonymous 401 log, got status=%v user=%v", line["status"], line["user_id"])
	}
}

func TestLoggingSkipsPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/resume/analyze", nil)

	for _, l := range serveAndCollectLogs(t, newLoggedRouter(), req) {
		if l["msg"] == "request.complete" {
			t.Fatalf("preflight should not be logged: %v", l)
		}
	}
}
