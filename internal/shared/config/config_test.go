package config

import (
	"os"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{raw: "50MB", want: 50 << 20},
		{raw: "512kb", want: 512 << 10},
		{raw: "1GB", want: 1 << 30},
		{raw: "7", want: 7 << 20},
		{raw: "lots", want: 50 << 20},
		{raw: "", want: 50 << 20},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseSize(tt.raw); got != tt.want {
				t.Fatalf("ParseSize(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.ImagesBaseDir != "./resume-images" {
		t.Fatalf("unexpected images dir %q", cfg.ImagesBaseDir)
	}
	if cfg.LLMMaxAttempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", cfg.LLMMaxAttempts)
	}
	if cfg.OCREnabled {
		t.Fatalf("expected OCR disabled by default")
	}
}

func TestParseNormalizesValues(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("ARTIFACT_STORE", "S3")
	t.Setenv("S3_BUCKET", "bucket")
	t.Setenv("CORS_ALLOW_ORIGINS", " http://a.test , ,http://b.test")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.ArtifactStore != "s3" {
		t.Fatalf("expected s3, got %q", cfg.ArtifactStore)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowOrigin)
	}
}

func TestParseRejectsMissingBucket(t *testing.T) {
	t.Setenv("ARTIFACT_STORE", "gcs")
	if _, err := Parse(); err == nil {
		t.Fatalf("expected validation error for gcs without bucket")
	}
}

func TestParseEnvLine(t *testing.T) {
	tests := []struct {
		line, key, val string
		ok             bool
	}{
		{line: "PORT=9090", key: "PORT", val: "9090", ok: true},
		{line: "export LLM_PROVIDER=none", key: "LLM_PROVIDER", val: "none", ok: true},
		{line: `GEMINI_API_KEY="a b"`, key: "GEMINI_API_KEY", val: "a b", ok: true},
		{line: "RESUME_MAX_FILE_SIZE=10MB # per upload", key: "RESUME_MAX_FILE_SIZE", val: "10MB", ok: true},
		{line: "# comment"},
		{line: "NOEQUALS"},
		{line: "=value"},
	}
	for _, tt := range tests {
		key, val, ok := parseEnvLine(tt.line)
		if ok != tt.ok || key != tt.key || val != tt.val {
			t.Fatalf("parseEnvLine(%q) = %q %q %v", tt.line, key, val, ok)
		}
	}
}

func TestLoadEnvFilesKeepsProcessEnv(t *testing.T) {
	path := t.TempDir() + "/.env"
	if err := os.WriteFile(path, []byte("PORT=1111\nANALYSIS_VERSION=2.0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "2222")
	t.Setenv("ANALYSIS_VERSION", "")
	os.Unsetenv("ANALYSIS_VERSION")

	loadEnvFiles(path)
	if got := os.Getenv("PORT"); got != "2222" {
		t.Fatalf("process env should win, got %q", got)
	}
	if got := os.Getenv("ANALYSIS_VERSION"); got != "2.0" {
		t.Fatalf("expected value from file, got %q", got)
	}
}
