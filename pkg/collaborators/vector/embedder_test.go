package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedReturnsVectorAndSetsDimensions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var reqBody embeddingRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&reqBody))
		assert.Equal(t, "some text", reqBody.Input)
		_ = json.NewEncoder(w).Encode(embeddingResponse{
			Data: []struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{{Embedding: []float32{0.1, 0.2, 0.3}, Index: 0}},
		})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	embedder := NewHTTPEmbedder(config)

	vec, err := embedder.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 3, embedder.Dimensions())
}

func TestEmbedReturnsErrorOnNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	embedder := NewHTTPEmbedder(config)

	_, err := embedder.Embed(context.Background(), "text")
	require.Error(t, err)
}

func TestEmbedReturnsErrorOnEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(embeddingResponse{})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	embedder := NewHTTPEmbedder(config)

	_, err := embedder.Embed(context.Background(), "text")
	require.Error(t, err)
}

func TestEmbedBatchEmbedsEachTextInOrder(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var reqBody embeddingRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&reqBody))
		seen = append(seen, reqBody.Input)
		_ = json.NewEncoder(w).Encode(embeddingResponse{
			Data: []struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{{Embedding: []float32{1, 2}, Index: 0}},
		})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	embedder := NewHTTPEmbedder(config)

	results, err := embedder.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, []string{"a", "b"}, seen)
}
