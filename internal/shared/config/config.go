package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds application configuration.
type Config struct {
	Port            string   `env:"PORT" envDefault:"8080"`
	Env             string   `env:"ENV" envDefault:"dev"`
	CORSAllowOrigin []string `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	DatabaseURL     string   `env:"DATABASE_URL"`

	ArtifactStore     string `env:"ARTIFACT_STORE" envDefault:"local" validate:"oneof=local s3 gcs"`
	ImagesBaseDir     string `env:"RESUME_IMAGES_DIR" envDefault:"./resume-images"`
	AWSRegion         string `env:"AWS_REGION"`
	S3Bucket          string `env:"S3_BUCKET" validate:"required_if=ArtifactStore s3"`
	S3Prefix          string `env:"S3_PREFIX"`
	SSEKMSKeyID       string `env:"SSE_KMS_KEY_ID"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	GCSBucket         string `env:"GCS_BUCKET" validate:"required_if=ArtifactStore gcs"`
	GCSPrefix         string `env:"GCS_PREFIX"`

	LLMProvider     string        `env:"LLM_PROVIDER" envDefault:"gemini" validate:"oneof=gemini vertex none"`
	LLMModel        string        `env:"LLM_MODEL" envDefault:"gemini-1.5-flash"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiBaseURL   string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	VertexProjectID string        `env:"VERTEX_PROJECT_ID" validate:"required_if=LLMProvider vertex"`
	VertexRegion    string        `env:"VERTEX_REGION" envDefault:"us-central1"`
	LLMMaxAttempts  int           `env:"LLM_MAX_ATTEMPTS" envDefault:"5" validate:"min=1,max=10"`
	LLMBaseDelay    time.Duration `env:"LLM_RETRY_BASE_DELAY" envDefault:"1s"`

	OCREnabled      bool   `env:"EXTRACT_OCR_ENABLED" envDefault:"false"`
	MaxFileSize     string `env:"RESUME_MAX_FILE_SIZE" envDefault:"50MB"`
	AnalysisVersion string `env:"ANALYSIS_VERSION" envDefault:"1.0"`
	AnalyzePerMin   int    `env:"RATE_LIMIT_ANALYZE_PER_MIN" envDefault:"10" validate:"min=0"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg, err := Parse()
	if err != nil {
		log.Printf("config: %v; falling back to defaults where invalid", err)
	}
	return cfg
}

// Parse reads and validates configuration without touching env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ArtifactStore = normalizeStoreType(cfg.ArtifactStore)
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.CORSAllowOrigin = splitAndTrim(strings.Join(cfg.CORSAllowOrigin, ","))

	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// MaxFileSizeBytes converts MaxFileSize ("50MB", "512KB", "1GB") into bytes.
// Unparseable values fall back to 50MB.
func (c Config) MaxFileSizeBytes() int64 {
	return ParseSize(c.MaxFileSize)
}

// ParseSize converts a human size string into bytes. Units default to MB.
func ParseSize(raw string) int64 {
	const fallback = 50 << 20
	s := strings.ToUpper(strings.TrimSpace(raw))
	multiplier := int64(1 << 20)
	switch {
	case strings.HasSuffix(s, "KB"):
		multiplier = 1 << 10
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "GB"):
		multiplier = 1 << 30
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		s = strings.TrimSuffix(s, "MB")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n * multiplier
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "gcs":
		return "gcs"
	default:
		return "local"
	}
}
