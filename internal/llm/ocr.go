package llm

import (
	"context"
	"errors"
	"fmt"

	"resume-analyzer/internal/extract"
)

// TextDecoder pulls plain text out of a raw provider response.
type TextDecoder func(raw string) (string, error)

// PageRecognizer transcribes rendered pages through the model. It satisfies
// extract.Recognizer.
type PageRecognizer struct {
	Client Client
	Decode TextDecoder
}

func (p PageRecognizer) Recognize(ctx context.Context, page extract.Page) (string, error) {
	if p.Client == nil || p.Decode == nil {
		return "", ErrNotConfigured
	}
	png, err := page.PNG()
	if err != nil {
		return "", err
	}
	raw, err := p.Client.Generate(ctx, Request{Prompt: OCRPrompt(), Images: []Image{PNG(png)}})
	if err != nil {
		return "", fmt.Errorf("ocr page %d: %w", page.Number, err)
	}
	text, err := p.Decode(raw)
	if err != nil {
		return "", fmt.Errorf("ocr page %d: %w", page.Number, err)
	}
	if text == "" {
		return "", errors.New("ocr returned no text")
	}
	return text, nil
}
