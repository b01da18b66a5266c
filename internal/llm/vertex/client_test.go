package vertex

import (
	"testing"

	"cloud.google.com/go/vertexai/genai"
)

func TestEnvelopeMatchesRESTShape(t *testing.T) {
	raw, err := envelope(`{"overallScore": 70}`)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	want := `{"candidates":[{"content":{"parts":[{"text":"{\"overallScore\": 70}"}]}}]}`
	if raw != want {
		t.Fatalf("unexpected envelope\n got: %s\nwant: %s", raw, want)
	}
}

func TestResponseTextJoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("a"), genai.Text("b")}},
		}},
	}
	if got := responseText(resp); got != "ab" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := responseText(nil); got != "" {
		t.Fatalf("expected empty text for nil response, got %q", got)
	}
}

func TestImageFormat(t *testing.T) {
	cases := map[string]string{"image/png": "png", "image/jpeg": "jpeg", "": "png", "png": "png"}
	for in, want := range cases {
		if got := imageFormat(in); got != want {
			t.Fatalf("imageFormat(%q) = %q, want %q", in, got, want)
		}
	}
}
