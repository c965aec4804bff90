package service

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestGeminiEmbedder_TaskTypes(t *testing.T) {
	var gotRequests []EmbeddingRequest
	server := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotRequests = append(gotRequests, req)

		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		json.NewEncoder(w).Encode(EmbeddingResponse{
			Embedding: EmbeddingData{Values: []float32{3, 4}},
		})
	})

	e := NewGeminiEmbedder("test-key", "models/text-embedding-004", WithEmbedderBaseURL(server.URL))
	ctx := context.Background()

	_, err := e.EmbedDocument(ctx, "a stored chunk")
	require.NoError(t, err)
	_, err = e.EmbedQuery(ctx, "a user question")
	require.NoError(t, err)

	require.Len(t, gotRequests, 2)
	assert.Equal(t, "RETRIEVAL_DOCUMENT", gotRequests[0].TaskType)
	assert.Equal(t, "a stored chunk", gotRequests[0].Content.Parts[0].Text)
	assert.Equal(t, "RETRIEVAL_QUERY", gotRequests[1].TaskType)
	assert.Equal(t, 768, gotRequests[0].OutputDimensionality)
	assert.Equal(t, "models/text-embedding-004", gotRequests[0].Model)
}

func TestGeminiEmbedder_NormalizesVector(t *testing.T) {
	server := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(EmbeddingResponse{
			Embedding: EmbeddingData{Values: []float32{3, 4}},
		})
	})

	e := NewGeminiEmbedder("test-key", "models/text-embedding-004", WithEmbedderBaseURL(server.URL))

	vector, err := e.EmbedQuery(context.Background(), "text")
	require.NoError(t, err)
	require.Len(t, vector, 2)

	// [3, 4] scaled to unit norm is [0.6, 0.8].
	assert.InDelta(t, 0.6, vector[0], 1e-6)
	assert.InDelta(t, 0.8, vector[1], 1e-6)

	var sumSq float64
	for _, x := range vector {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-6)
}

func TestGeminiEmbedder_BadRequestNotRetried(t *testing.T) {
	calls := 0
	server := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error": "invalid argument"}`, http.StatusBadRequest)
	})

	e := NewGeminiEmbedder("test-key", "models/text-embedding-004", WithEmbedderBaseURL(server.URL))

	_, err := e.EmbedQuery(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
	assert.Equal(t, 1, calls)
}

func TestGeminiEmbedder_ServerErrorRetriedThenFails(t *testing.T) {
	calls := 0
	server := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	})

	e := NewGeminiEmbedder("test-key", "models/text-embedding-004", WithEmbedderBaseURL(server.URL))

	_, err := e.EmbedQuery(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
	assert.Equal(t, 3, calls)
}

func TestGeminiEmbedder_EmptyEmbedding(t *testing.T) {
	server := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(EmbeddingResponse{})
	})

	e := NewGeminiEmbedder("test-key", "models/text-embedding-004", WithEmbedderBaseURL(server.URL))

	_, err := e.EmbedQuery(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}
