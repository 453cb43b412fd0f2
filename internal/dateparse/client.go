// Package dateparse talks to the external text-understanding sidecar that
// turns natural-language date expressions ("amanhã às 14h", "04/09/2025
// 19:05") into absolute instants. The core never parses free text itself.
package dateparse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is the normalizer's verdict for one expression. YMDLocal is the
// civil date in the requested time zone; HasTime reports whether the text
// carried an explicit wall-clock time.
type Result struct {
	ISOUTC   time.Time
	HasTime  bool
	YMDLocal string // YYYY-MM-DD
}

// Normalizer resolves a free-text date expression in a time zone. A nil
// Result with a nil error means the text could not be understood.
type Normalizer interface {
	Normalize(ctx context.Context, text, tz string) (*Result, error)
}

// Unavailable is the Normalizer used when no sidecar is configured. Every
// expression is unmatched, so callers fall back to re-prompting the user.
type Unavailable struct{}

func (Unavailable) Normalize(_ context.Context, _, _ string) (*Result, error) {
	return nil, nil
}

// Client is an HTTP client for the date-normalizer sidecar.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type normalizeRequest struct {
	Text     string `json:"text"`
	Timezone string `json:"timezone"`
}

type normalizeResponse struct {
	Matched  bool   `json:"matched"`
	ISOUTC   string `json:"isoUtc"`
	HasTime  bool   `json:"hasTime"`
	YMDLocal string `json:"ymdLocal"`
}

// Normalize posts the expression to the sidecar. Unmatched text is not an
// error: it returns (nil, nil) so callers can re-prompt the user.
func (c *Client) Normalize(ctx context.Context, text, tz string) (*Result, error) {
	body, err := json.Marshal(normalizeRequest{Text: text, Timezone: tz})
	if err != nil {
		return nil, fmt.Errorf("marshal normalize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/normalize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build normalize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call date normalizer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("date normalizer returned %d: %s", resp.StatusCode, snippet)
	}

	var out normalizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode normalizer response: %w", err)
	}

	if !out.Matched {
		return nil, nil
	}

	instant, err := time.Parse(time.RFC3339, out.ISOUTC)
	if err != nil {
		return nil, fmt.Errorf("normalizer returned bad instant %q: %w", out.ISOUTC, err)
	}

	return &Result{
		ISOUTC:   instant.UTC(),
		HasTime:  out.HasTime,
		YMDLocal: out.YMDLocal,
	}, nil
}
