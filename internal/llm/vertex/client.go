package vertex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"resume-analyzer/internal/llm"
)

// Client implements llm.Client with the Vertex AI SDK. Responses are re-wrapped
// into the same candidates envelope the REST API returns.
type Client struct {
	base  *genai.Client
	model *genai.GenerativeModel
	name  string
}

func NewClient(ctx context.Context, projectID, region, model string) (*Client, error) {
	if projectID == "" || region == "" {
		return nil, errors.New("vertex: project id and region are required")
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-1.5-flash"
	}
	base, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	m := base.GenerativeModel(model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}
	return &Client{base: base, model: m, name: model}, nil
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	parts := []genai.Part{genai.Text(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts, genai.ImageData(imageFormat(img.MIMEType), img.Data))
	}
	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("vertex generate model=%s: %w", c.name, err)
	}
	return envelope(responseText(resp))
}

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

type envelopePart struct {
	Text string `json:"text"`
}

type envelopeContent struct {
	Parts []envelopePart `json:"parts"`
}

type envelopeCandidate struct {
	Content envelopeContent `json:"content"`
}

func envelope(text string) (string, error) {
	raw, err := json.Marshal(struct {
		Candidates []envelopeCandidate `json:"candidates"`
	}{Candidates: []envelopeCandidate{{Content: envelopeContent{Parts: []envelopePart{{Text: text}}}}}})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func imageFormat(mime string) string {
	if f := strings.TrimPrefix(mime, "image/"); f != "" && f != mime {
		return f
	}
	return "png"
}

var _ llm.Client = (*Client)(nil)
