package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-backend/models"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

func (f *fakeEmbedder) ModelVersion() string {
	return "models/test-embedding"
}

type fakeSearcher struct {
	results      []models.RetrievalResult
	err          error
	gotVector    []float32
	gotModel     string
	gotTopK      int
	gotThreshold float64
}

func (f *fakeSearcher) Search(ctx context.Context, queryVector []float32, modelVersion string, topK int, threshold float64) ([]models.RetrievalResult, error) {
	f.gotVector = queryVector
	f.gotModel = modelVersion
	f.gotTopK = topK
	f.gotThreshold = threshold
	return f.results, f.err
}

func intPtr(i int) *int { return &i }

func TestRetrieve_FormatsResultsWithProvenance(t *testing.T) {
	searcher := &fakeSearcher{
		results: []models.RetrievalResult{
			{
				Content:    "Refunds are granted within 30 days.",
				Metadata:   models.ChunkMetadata{SourceFile: "policy.pdf", ChunkIndex: 3, Page: intPtr(1)},
				Similarity: 0.91,
			},
			{
				Content:    "Refund requests go through support.",
				Metadata:   models.ChunkMetadata{SourceFile: "handbook.pdf", ChunkIndex: 0},
				Similarity: 0.82,
			},
		},
	}
	r := NewRetriever(&fakeEmbedder{vector: []float32{0.1, 0.2}}, searcher, 5, 0.75)

	out := r.Retrieve(context.Background(), "refund policy")

	// Pages are stored 0-based and shown 1-based.
	assert.Contains(t, out, "Refunds are granted within 30 days.\n[Source: policy.pdf, page 2, similarity 0.91]")
	// A chunk with no page shows no page number.
	assert.Contains(t, out, "Refund requests go through support.\n[Source: handbook.pdf, similarity 0.82]")

	// Store order is preserved: most similar first.
	assert.Less(t, strings.Index(out, "similarity 0.91"), strings.Index(out, "similarity 0.82"))
}

func TestRetrieve_PassesSearchParameters(t *testing.T) {
	searcher := &fakeSearcher{}
	vector := []float32{0.3, 0.4}
	r := NewRetriever(&fakeEmbedder{vector: vector}, searcher, 7, 0.6)

	r.Retrieve(context.Background(), "anything")

	assert.Equal(t, vector, searcher.gotVector)
	assert.Equal(t, "models/test-embedding", searcher.gotModel)
	assert.Equal(t, 7, searcher.gotTopK)
	assert.Equal(t, 0.6, searcher.gotThreshold)
}

func TestRetrieve_NoResultsReturnsSentinel(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{vector: []float32{0.1}}, &fakeSearcher{}, 5, 0.75)

	out := r.Retrieve(context.Background(), "unknown topic")
	assert.Equal(t, NoDocContext, out)
}

func TestRetrieve_EmbedderFailureDegrades(t *testing.T) {
	embedder := &fakeEmbedder{err: fmt.Errorf("%w: boom", ErrEmbeddingUnavailable)}
	searcher := &fakeSearcher{
		results: []models.RetrievalResult{{Content: "should not surface"}},
	}
	r := NewRetriever(embedder, searcher, 5, 0.75)

	out := r.Retrieve(context.Background(), "query")

	assert.Equal(t, NoDocContext, out)
	// Search is never attempted after a failed embedding.
	assert.Nil(t, searcher.gotVector)
}

func TestRetrieve_SearchFailureDegrades(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	r := NewRetriever(&fakeEmbedder{vector: []float32{0.1}}, searcher, 5, 0.75)

	out := r.Retrieve(context.Background(), "query")

	require.Equal(t, NoDocContext, out)
}
