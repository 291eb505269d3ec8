package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/satpathiprabhat/banking-ai-chatbot/services/orchestrator/datatypes"
)

// EmbeddingProvider computes vector embeddings for text.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}

// HTTPEmbedder calls the embedding sidecar's /embed and /batch_embed
// endpoints. baseURL may be given with or without a trailing /embed suffix.
type HTTPEmbedder struct {
	embedURL      string
	batchEmbedURL string
	client        *http.Client
}

var _ EmbeddingProvider = (*HTTPEmbedder)(nil)

// NewHTTPEmbedder creates an embedding client for the sidecar at baseURL.
func NewHTTPEmbedder(baseURL string, timeout time.Duration) *HTTPEmbedder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	root := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/embed")
	return &HTTPEmbedder{
		embedURL:      root + "/embed",
		batchEmbedURL: root + "/batch_embed",
		client:        &http.Client{Timeout: timeout},
	}
}

// Embed returns the vector for a single text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp datatypes.EmbeddingResponse
	if err := e.post(ctx, e.embedURL, datatypes.EmbeddingRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Vector) == 0 {
		return nil, fmt.Errorf("embedding service returned an empty vector")
	}
	return resp.Vector, nil
}

// BatchEmbed returns one vector per input text, in input order.
func (e *HTTPEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	var resp datatypes.BatchEmbeddingResponse
	if err := e.post(ctx, e.batchEmbedURL, datatypes.BatchEmbeddingRequest{Texts: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Vectors) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts",
			len(resp.Vectors), len(texts))
	}
	return resp.Vectors, nil
}

func (e *HTTPEmbedder) post(ctx context.Context, url string, body, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal the embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to setup the embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach the embedding service: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding service returned status %d: %s",
			resp.StatusCode, string(bodyBytes))
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to parse the embedding service response: %w", err)
	}
	return nil
}
