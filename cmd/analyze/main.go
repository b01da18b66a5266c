package main

// Score a local PDF without starting the API:
//   go run ./cmd/analyze -resume ./cv.pdf

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resume-analyzer/internal/bootstrap"
	"resume-analyzer/internal/resumeanalysis"
	"resume-analyzer/internal/shared/config"
)

func main() {
	cfg := config.Load()

	resumePath := flag.String("resume", "", "Path to resume PDF")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider: gemini, vertex or none")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	imagesDir := flag.String("images-dir", filepath.Join(os.TempDir(), "resume-analyzer-cli"), "Directory for rendered pages")
	capsOnly := flag.Bool("capabilities", false, "Only report how the file would be analyzed")
	flag.Parse()

	if strings.TrimSpace(*resumePath) == "" {
		exitErr("resume path is required")
	}
	if ext := strings.ToLower(filepath.Ext(*resumePath)); ext != ".pdf" {
		exitErr(fmt.Sprintf("unsupported resume file type: %s", ext))
	}
	data, err := os.ReadFile(*resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("read resume: %v", err))
	}

	// results stay in memory; pages go to a scratch directory
	cfg.Env = "local"
	cfg.DatabaseURL = ""
	cfg.ArtifactStore = "local"
	cfg.ImagesBaseDir = *imagesDir
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(*provider))
	cfg.LLMModel = *model

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		exitErr(fmt.Sprintf("bootstrap: %v", err))
	}
	defer app.Close()

	var out any
	if *capsOnly {
		out = app.Service.Capabilities(ctx, data)
	} else {
		res, err := app.Service.Analyze(ctx, resumeanalysis.Upload{
			OwnerID:  "cli",
			Filename: filepath.Base(*resumePath),
			Size:     int64(len(data)),
			Data:     data,
		})
		if err != nil {
			exitErr(fmt.Sprintf("analyze: %v", err))
		}
		out = res.Response
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	pretty = append(pretty, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
