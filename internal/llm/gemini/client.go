package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/shared/telemetry"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash"

	connectTimeout = 30 * time.Second
	writeTimeout   = 60 * time.Second
	readTimeout    = 180 * time.Second

	maxErrorBody = 2048
)

var oauthScopes = []string{
	"https://www.googleapis.com/auth/generative-language",
	"https://www.googleapis.com/auth/cloud-platform",
}

// Options configures the REST client. When APIKey is empty, requests are
// authorized with TokenSource, defaulting to application default credentials.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	HTTPClient  *http.Client
	TokenSource oauth2.TokenSource
}

// Client implements llm.Client against the generateContent REST endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient()
	}

	c := &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		baseURL:    base,
		httpClient: httpClient,
		tokens:     opts.TokenSource,
	}
	if c.apiKey == "" && c.tokens == nil {
		ts, err := google.DefaultTokenSource(ctx, oauthScopes...)
		if err != nil {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set and default credentials are unavailable: %w", err)
		}
		c.tokens = ts
	}
	return c, nil
}

// newHTTPClient maps the three call timeouts onto the transport: dialing and
// the TLS handshake get connectTimeout, every write on the connection must
// finish within writeTimeout, and the response headers must arrive within
// readTimeout.
func newHTTPClient() *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialWithWriteTimeout(dialer, writeTimeout),
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: readTimeout,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   connectTimeout + writeTimeout + readTimeout,
	}
}

func dialWithWriteTimeout(d *net.Dialer, timeout time.Duration) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		return &writeDeadlineConn{Conn: conn, timeout: timeout}, nil
	}
}

// writeDeadlineConn arms a fresh write deadline before every Write.
type writeDeadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *writeDeadlineConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

// Generate posts the prompt and images and returns the raw response envelope.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	parts := []part{{Text: req.Prompt}}
	for _, img := range req.Images {
		mime := img.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: mime,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}
	payload, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey == "" {
		tok, err := c.tokens.Token()
		if err != nil {
			return "", fmt.Errorf("gemini token: %w", err)
		}
		tok.SetAuthHeader(httpReq)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("gemini request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return "", &llm.StatusError{Provider: "gemini", StatusCode: resp.StatusCode, Body: snippet}
	}
	telemetry.Info("llm.response", map[string]any{
		"provider": "gemini",
		"model":    c.model,
		"images":   len(req.Images),
		"bytes":    len(body),
	})
	return string(body), nil
}

func (c *Client) endpoint() string {
	u := fmt.Sprintf("%s/v1/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	if c.apiKey != "" {
		u += "?key=" + url.QueryEscape(c.apiKey)
	}
	return u
}

var _ llm.Client = (*Client)(nil)
