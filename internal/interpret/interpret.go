// Package interpret turns raw model output into a scoring.Response. It never
// returns an error: anything it cannot read becomes the neutral profile.
package interpret

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"resume-analyzer/internal/scoring"
	"resume-analyzer/internal/shared/telemetry"
)

//go:embed response.schema.json
var responseSchemaJSON string

var (
	responseSchema = jsonschema.MustCompileString("response.schema.json", responseSchemaJSON)
	validate       = validator.New()
)

// Kind tags the shape of a raw model response.
type Kind int

const (
	KindPlain Kind = iota
	KindFenced
	KindEnvelope
)

func (k Kind) String() string {
	switch k {
	case KindEnvelope:
		return "envelope"
	case KindFenced:
		return "fenced"
	default:
		return "plain"
	}
}

// Raw is a classified response. For envelopes Body is the unwrapped inner text.
type Raw struct {
	Kind Kind
	Body string
}

// ErrNoText is returned by ResponseText when an envelope carries no text part.
var ErrNoText = errors.New("model response has no text")

type envelope struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Classify detects the envelope shape first, then code fences.
func Classify(raw string) Raw {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") && strings.Contains(trimmed, `"candidates"`) {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &probe); err == nil {
			if _, ok := probe["candidates"]; ok {
				return Raw{Kind: KindEnvelope, Body: envelopeText(trimmed)}
			}
		}
	}
	if strings.HasPrefix(trimmed, "```") {
		return Raw{Kind: KindFenced, Body: trimmed}
	}
	return Raw{Kind: KindPlain, Body: trimmed}
}

func envelopeText(raw string) string {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return ""
	}
	if len(env.Candidates) == 0 || len(env.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	if t := env.Candidates[0].Content.Parts[0].Text; t != nil {
		return *t
	}
	return ""
}

// ResponseText returns the model's text with fences stripped. It is used for
// prose responses such as summaries and page transcriptions.
func ResponseText(raw string) (string, error) {
	c := Classify(raw)
	text := strings.TrimSpace(cleanText(stripFences(c.Body)))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// Parse decodes a scoring response. The score set always carries all eight
// dimensions; ones the model left out are 0. Any failure yields
// scoring.NeutralAI.
func Parse(raw string) scoring.Response {
	resp, err := decode(raw)
	if err != nil {
		telemetry.Warn("interpret.parse_failed", map[string]any{"error": err, "length": len(raw)})
		return scoring.NeutralAI()
	}
	return resp
}

type wireSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
}

type wireResponse struct {
	OverallScore  float64            `json:"overallScore"`
	Scores        map[string]float64 `json:"scores"`
	Suggestions   []wireSuggestion   `json:"suggestions"`
	Details       map[string]any     `json:"details"`
	ExtractedText string             `json:"extractedText"`
}

func decode(raw string) (scoring.Response, error) {
	if strings.TrimSpace(raw) == "" {
		return scoring.Response{}, errors.New("empty response")
	}
	c := Classify(raw)
	if c.Kind == KindEnvelope && strings.TrimSpace(c.Body) == "" {
		return scoring.Response{}, errors.New("envelope without text part")
	}
	body := cleanJSON(c.Body)
	if body == "" {
		return scoring.Response{}, fmt.Errorf("no json object in %s response", c.Kind)
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return scoring.Response{}, fmt.Errorf("decode %s response: %w", c.Kind, err)
	}
	if err := responseSchema.Validate(doc); err != nil {
		return scoring.Response{}, fmt.Errorf("response does not match schema: %w", err)
	}
	var wire wireResponse
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return scoring.Response{}, fmt.Errorf("decode %s response: %w", c.Kind, err)
	}

	overall := int(wire.OverallScore)
	if overall > 100 {
		overall = 100
	}
	return scoring.Response{
		OverallScore:  overall,
		Scores:        scoring.FromMap(wire.Scores).Complete(),
		Suggestions:   suggestions(wire.Suggestions),
		Details:       cleanDetails(wire.Details),
		ExtractedText: cleanText(wire.ExtractedText),
	}, nil
}

// cleanDetails strips NUL and invalid UTF-8 from every string in the map,
// nested values included. Postgres rejects both in text and jsonb.
func cleanDetails(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[cleanText(k)] = cleanValue(v)
	}
	return out
}

func cleanValue(v any) any {
	switch t := v.(type) {
	case string:
		return cleanText(t)
	case map[string]any:
		return cleanDetails(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cleanValue(e)
		}
		return out
	default:
		return v
	}
}

func cleanText(s string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", "")
}

// suggestions keeps entries that pass validation after severity normalization.
func suggestions(in []wireSuggestion) []scoring.Suggestion {
	out := make([]scoring.Suggestion, 0, len(in))
	for _, w := range in {
		s := scoring.Suggestion{
			Title:       strings.TrimSpace(cleanText(w.Title)),
			Description: strings.TrimSpace(cleanText(w.Description)),
			Category:    strings.TrimSpace(cleanText(w.Category)),
			Severity:    scoring.NormalizeSeverity(w.Severity),
		}
		if err := validate.Struct(s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// cleanJSON strips fences and cuts from the first '{' to the last '}'.
func cleanJSON(s string) string {
	s = stripFences(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
