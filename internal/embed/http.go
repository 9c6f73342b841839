package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/castindex/indexer/internal/breaker"
)

// HTTPProvider calls a remote embedding server's POST /embed endpoint.
// Errors are returned unclassified (or as a breaker.HTTPStatusError) so
// the embed worker's Resilient wrapper can apply retry policy uniformly.
type HTTPProvider struct {
	endpoint   string
	model      string
	dimensions int
	client     *http.Client
}

// NewHTTPProvider constructs an HTTPProvider for the given endpoint.
func NewHTTPProvider(endpoint, model string, dimensions int) *HTTPProvider {
	return &HTTPProvider{
		endpoint:   endpoint,
		model:      model,
		dimensions: dimensions,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type httpEmbedRequest struct {
	Texts []string `json:"texts"`
	Mode  string   `json:"mode"`
}

type httpEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed posts texts to the configured endpoint and returns one vector per
// input in order.
func (p *HTTPProvider) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	body, err := json.Marshal(httpEmbedRequest{Texts: texts, Mode: string(mode)})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &breaker.HTTPStatusError{Code: resp.StatusCode, Err: fmt.Errorf("embedding server returned status %d", resp.StatusCode)}
	}

	var parsed httpEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(parsed.Embeddings), len(texts))
	}

	return parsed.Embeddings, nil
}

func (p *HTTPProvider) Name() string    { return "http" }
func (p *HTTPProvider) Model() string   { return p.model }
func (p *HTTPProvider) Dimensions() int { return p.dimensions }
func (p *HTTPProvider) Limits() Limits  { return Limits{} }
func (p *HTTPProvider) Close() error    { return nil }
