package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service reports process and dependency health.
type Service struct {
	DB         Pinger
	Store      string
	LLM        string
	OCREnabled bool
}

// NewService constructs a health service. db may be nil when the
// in-memory repository is used.
func NewService(db Pinger, store, llmProvider string, ocr bool) *Service {
	return &Service{DB: db, Store: store, LLM: llmProvider, OCREnabled: ocr}
}

// Status pings the database and returns a payload for /healthz. ok is false
// only when a configured database is unreachable.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	out := map[string]any{
		"ok":       true,
		"database": "memory",
		"store":    s.Store,
		"llm":      s.LLM,
		"ocr":      s.OCREnabled,
	}
	if s.DB == nil {
		return out, true
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		out["ok"] = false
		out["database"] = "unreachable"
		out["error"] = err.Error()
		return out, false
	}
	out["database"] = "postgres"
	return out, true
}
