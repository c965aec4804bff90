package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	geminiBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	embeddingDimensions = 768
	embedTimeout        = 30 * time.Second
	maxRetries          = 3
	initialBackoff      = time.Second
)

// ErrEmbeddingUnavailable marks an embedding call that failed after retries.
// Callers must not store or rank anything on its behalf: ingestion skips the
// chunk, retrieval degrades to no document context.
var ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

// Embedder maps text to fixed-length vectors. Ingestion and query must go
// through the same implementation so stored and query vectors stay
// comparable; ModelVersion identifies that implementation in the store.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	ModelVersion() string
}

// EmbeddingRequest is the Gemini embedContent request body.
type EmbeddingRequest struct {
	Model                string       `json:"model"`
	Content              ContentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

// ContentInput represents content for embedding.
type ContentInput struct {
	Parts []PartInput `json:"parts"`
}

// PartInput represents a part of content.
type PartInput struct {
	Text string `json:"text"`
}

// EmbeddingResponse is the Gemini embedContent response body.
type EmbeddingResponse struct {
	Embedding EmbeddingData `json:"embedding"`
}

// EmbeddingData contains the embedding values.
type EmbeddingData struct {
	Values []float32 `json:"values"`
}

// GeminiEmbedder calls the Gemini embedContent endpoint over REST.
type GeminiEmbedder struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// GeminiEmbedderOption is a functional option for GeminiEmbedder.
type GeminiEmbedderOption func(*GeminiEmbedder)

// WithEmbedderBaseURL overrides the API base URL (used in tests).
func WithEmbedderBaseURL(baseURL string) GeminiEmbedderOption {
	return func(e *GeminiEmbedder) {
		e.baseURL = baseURL
	}
}

// WithEmbedderHTTPClient overrides the HTTP client.
func WithEmbedderHTTPClient(client *http.Client) GeminiEmbedderOption {
	return func(e *GeminiEmbedder) {
		e.client = client
	}
}

// NewGeminiEmbedder creates an embedder for the given model identifier
// (e.g. "models/text-embedding-004").
func NewGeminiEmbedder(apiKey, model string, opts ...GeminiEmbedderOption) *GeminiEmbedder {
	e := &GeminiEmbedder{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		client:  &http.Client{Timeout: embedTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ModelVersion returns the embedding model identifier stored alongside each
// chunk and filtered on at query time.
func (e *GeminiEmbedder) ModelVersion() string {
	return e.model
}

// EmbedDocument embeds ingestion-time chunk text.
func (e *GeminiEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

// EmbedQuery embeds a query-time user question.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, "RETRIEVAL_QUERY")
}

func (e *GeminiEmbedder) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	reqBody := EmbeddingRequest{
		Model: e.model,
		Content: ContentInput{
			Parts: []PartInput{{Text: text}},
		},
		TaskType:             taskType,
		OutputDimensionality: embeddingDimensions,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:embedContent", e.baseURL, e.model)

	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, ctx.Err())
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", e.apiKey)

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			// Bad request and bad credentials won't get better with retries.
			if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
				return nil, fmt.Errorf("%w: API error %d - %s", ErrEmbeddingUnavailable, resp.StatusCode, string(body))
			}
			lastErr = fmt.Errorf("API error %d - %s", resp.StatusCode, string(body))
			continue
		}

		var apiResp EmbeddingResponse
		err = json.NewDecoder(resp.Body).Decode(&apiResp)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to decode response: %w", err)
			continue
		}

		values := apiResp.Embedding.Values
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: empty embedding returned", ErrEmbeddingUnavailable)
		}
		normalizeVector(values)
		return values, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, lastErr)
}

// normalizeVector scales the vector to unit L2 norm in place. Required for
// cosine comparisons when the requested dimensionality is below the model's
// native size.
func normalizeVector(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
