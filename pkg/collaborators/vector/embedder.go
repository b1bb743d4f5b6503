// Package vector provides a concrete Embedder collaborator satisfying
// pkg/notes.Embedder, adapted from
// ODSapper-CLIAIRMONITOR/internal/memory/embedding_lmstudio.go's
// LMStudioEmbedding: a plain net/http client posting a JSON
// {input, model} body to an OpenAI-embeddings-shaped endpoint and
// decoding the returned vector.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config configures an HTTPEmbedder.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns sane local-inference defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:1234/v1",
		Model:   "local-embedding-model",
		Timeout: 30 * time.Second,
	}
}

// HTTPEmbedder implements pkg/notes.Embedder against an
// OpenAI-embeddings-shaped HTTP endpoint.
type HTTPEmbedder struct {
	config     Config
	client     *http.Client
	dimensions int
}

// NewHTTPEmbedder constructs an HTTPEmbedder.
func NewHTTPEmbedder(config Config) *HTTPEmbedder {
	return &HTTPEmbedder{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed posts text to the embeddings endpoint and returns its vector.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(embeddingRequest{Input: text, Model: e.config.Model})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.BaseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call embedding endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding endpoint returned %s: %s", resp.Status, string(body))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embedding endpoint returned no data")
	}

	embedding := parsed.Data[0].Embedding
	e.dimensions = len(embedding)
	return embedding, nil
}

// Dimensions reports the size of the most recently returned
// embedding, 0 before the first call.
func (e *HTTPEmbedder) Dimensions() int {
	return e.dimensions
}

// EmbedBatch embeds each text in sequence, matching the original
// LMStudioEmbedding.EmbedBatch (the backend's API has no batch
// endpoint, so there's nothing to parallelize at the wire level).
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		results[i] = embedding
	}
	return results, nil
}
