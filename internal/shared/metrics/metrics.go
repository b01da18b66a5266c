package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var (
	analysisStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resume_analysis_started_total",
		Help: "Total resume analyses started",
	})
	analysisCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_analysis_completed_total",
		Help: "Total resume analyses completed by analysis method",
	}, []string{"method"})
	analysisFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_analysis_failed_total",
		Help: "Total resume analyses that failed to persist, by stage",
	}, []string{"stage"})
	analysisDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "resume_analysis_duration_ms",
		Help:    "Resume analysis duration in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	}, []string{"method"})
	extractionPassTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_extraction_pass_total",
		Help: "Extraction results by the pass that produced the text",
	}, []string{"pass"})
	llmRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_requests_total",
		Help: "Generative model requests by provider and outcome",
	}, []string{"provider", "outcome"})
	llmRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "Generative model request duration in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 180},
	}, []string{"provider"})
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"route", "method", "status"})
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"route", "method"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		analysisStartedTotal,
		analysisCompletedTotal,
		analysisFailedTotal,
		analysisDuration,
		extractionPassTotal,
		llmRequestsTotal,
		llmRequestDuration,
		httpRequestsTotal,
		httpRequestDuration,
	)
}

// IncAnalysisStarted increments the started counter.
func IncAnalysisStarted() {
	analysisStartedTotal.Inc()
}

// IncAnalysisCompleted increments the completed counter for a method.
func IncAnalysisCompleted(method string) {
	analysisCompletedTotal.WithLabelValues(method).Inc()
}

// IncAnalysisFailed increments the failed counter for the stage that failed.
func IncAnalysisFailed(stage string) {
	analysisFailedTotal.WithLabelValues(stage).Inc()
}

// ObserveAnalysisDurationMs records an analysis duration in milliseconds.
func ObserveAnalysisDurationMs(method string, value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.WithLabelValues(method).Observe(value)
}

// IncExtractionPass counts which extraction pass produced the text ("none" when empty).
func IncExtractionPass(pass string) {
	extractionPassTotal.WithLabelValues(pass).Inc()
}

// ObserveLLMRequest records one model call.
func ObserveLLMRequest(provider string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	llmRequestsTotal.WithLabelValues(provider, outcome).Inc()
	llmRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// Middleware records request counts and latencies per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
