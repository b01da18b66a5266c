package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/interpret"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/llm/gemini"
	"resume-analyzer/internal/llm/vertex"
	"resume-analyzer/internal/resumeanalysis"
	"resume-analyzer/internal/services/health"
	"resume-analyzer/internal/shared/config"
	"resume-analyzer/internal/shared/server"
	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/storage/db"
	"resume-analyzer/internal/shared/storage/object"
	gcsstore "resume-analyzer/internal/shared/storage/object/gcs"
	localstore "resume-analyzer/internal/shared/storage/object/local"
	s3store "resume-analyzer/internal/shared/storage/object/s3"
)

// App holds the wired dependencies of the API process.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Store   object.Store
	LLM     llm.Client
	Service *resumeanalysis.Service
	Handler *resumeanalysis.Handler

	closers []func() error
}

// Build connects storage and the model provider and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store
	if closeStore != nil {
		app.closers = append(app.closers, closeStore)
	}

	client, closeLLM, err := buildLLM(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.LLM = client
	if closeLLM != nil {
		app.closers = append(app.closers, closeLLM)
	}

	buildService(app)

	var pinger health.Pinger
	if app.DB != nil {
		pinger = app.DB
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		ResumeHandler: app.Handler,
		Health:        health.NewService(pinger, cfg.ArtifactStore, cfg.LLMProvider, cfg.OCREnabled),
		RateLimiter:   middleware.NewRateLimiter(nil),
	})
	return app, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repository")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
			sqlDB = nil
			err = fmt.Errorf("run migrations: %w", err)
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database unavailable; using in-memory repository: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, func() error, error) {
	switch cfg.ArtifactStore {
	case "s3":
		st, err := s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			KMSKeyID:        cfg.SSEKMSKeyID,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		return st, nil, err
	case "gcs":
		st, err := gcsstore.New(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return localstore.New(cfg.ImagesBaseDir), nil, nil
	}
}

// buildLLM returns the configured provider behind the retry wrapper. A gemini
// provider without credentials degrades to the placeholder in dev so the
// heuristic path still works.
func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, func() error, error) {
	var (
		base   llm.Client
		closer func() error
	)
	switch cfg.LLMProvider {
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Options{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			if !isDevLike(cfg.Env) {
				return nil, nil, err
			}
			log.Printf("bootstrap: gemini unavailable; scoring falls back to heuristics: %v", err)
			return llm.PlaceholderClient{}, nil, nil
		}
		base = c
	case "vertex":
		c, err := vertex.NewClient(ctx, cfg.VertexProjectID, cfg.VertexRegion, cfg.LLMModel)
		if err != nil {
			return nil, nil, err
		}
		base, closer = c, c.Close
	default:
		return llm.PlaceholderClient{}, nil, nil
	}
	return llm.WithRetry(base, cfg.LLMProvider, cfg.LLMMaxAttempts, cfg.LLMBaseDelay), closer, nil
}

func buildService(app *App) {
	cfg := app.Config

	var repo resumeanalysis.Repo
	if app.DB != nil {
		repo = &resumeanalysis.PGRepo{DB: app.DB}
	} else {
		repo = resumeanalysis.NewMemoryRepo()
	}

	ocr := llm.PageRecognizer{Client: app.LLM, Decode: interpret.ResponseText}
	engine := extract.NewEngine(ocr, cfg.OCREnabled)

	app.Service = &resumeanalysis.Service{
		Repo:      repo,
		Extractor: engine,
		Renderer:  engine.Renderer,
		Artifacts: &resumeanalysis.ArtifactWriter{
			Store:    app.Store,
			Renderer: engine.Renderer,
			MaxPages: extract.MaxImagePages,
		},
		LLM:             app.LLM,
		AnalysisVersion: cfg.AnalysisVersion,
		MaxImagePages:   extract.MaxImagePages,
	}
	app.Handler = resumeanalysis.NewHandler(app.Service, cfg.MaxFileSizeBytes(), cfg.MaxFileSize)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
