package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client abstracts generative model providers. Generate returns the provider's
// raw response body, which callers hand to the interpreter.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is one prompt with optional page images.
type Request struct {
	Prompt string
	Images []Image
}

// Image is an encoded image part.
type Image struct {
	MIMEType string
	Data     []byte
}

// PNG wraps encoded PNG bytes as an image part.
func PNG(data []byte) Image {
	return Image{MIMEType: "image/png", Data: data}
}

// ErrNotConfigured is returned when no provider is set up.
var ErrNotConfigured = errors.New("llm provider not configured")

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether a retry may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// PlaceholderClient is used when LLM_PROVIDER=none; every call fails fast.
type PlaceholderClient struct{}

func (PlaceholderClient) Generate(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}
