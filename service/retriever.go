package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"docchat-backend/models"
)

// NoDocContext is the fixed sentinel used when no stored chunk clears the
// similarity threshold, or when retrieval degrades after an embedding or
// store failure. It is an expected outcome, not an error.
const NoDocContext = "No relevant internal documentation found."

// DocumentSearcher is the slice of the document store the retriever needs.
type DocumentSearcher interface {
	Search(ctx context.Context, queryVector []float32, modelVersion string, topK int, threshold float64) ([]models.RetrievalResult, error)
}

// Retriever turns a user question into a formatted block of relevant
// document context with provenance.
type Retriever struct {
	embedder  Embedder
	store     DocumentSearcher
	topK      int
	threshold float64
}

// NewRetriever creates a retriever. topK bounds the number of chunks and
// threshold the minimum cosine similarity a chunk must reach.
func NewRetriever(embedder Embedder, store DocumentSearcher, topK int, threshold float64) *Retriever {
	return &Retriever{
		embedder:  embedder,
		store:     store,
		topK:      topK,
		threshold: threshold,
	}
}

// Retrieve embeds the question, searches the document store, and renders the
// matches most-similar first. Failures in embedding or search degrade to the
// NoDocContext sentinel with a logged warning; only the store's vectors from
// this retriever's embedding model version are consulted.
func (r *Retriever) Retrieve(ctx context.Context, query string) string {
	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Printf("Warning: query embedding failed, continuing without document context: %v", err)
		return NoDocContext
	}

	results, err := r.store.Search(ctx, queryVector, r.embedder.ModelVersion(), r.topK, r.threshold)
	if err != nil {
		log.Printf("Warning: document search failed, continuing without document context: %v", err)
		return NoDocContext
	}
	if len(results) == 0 {
		return NoDocContext
	}

	blocks := make([]string, 0, len(results))
	for _, res := range results {
		blocks = append(blocks, res.Content+"\n"+formatProvenance(res))
	}
	return strings.Join(blocks, "\n\n")
}

// formatProvenance renders the source footer for one result. Pages are
// 0-based at extraction and shown 1-based.
func formatProvenance(res models.RetrievalResult) string {
	if res.Metadata.Page != nil {
		return fmt.Sprintf("[Source: %s, page %d, similarity %.2f]",
			res.Metadata.SourceFile, *res.Metadata.Page+1, res.Similarity)
	}
	return fmt.Sprintf("[Source: %s, similarity %.2f]", res.Metadata.SourceFile, res.Similarity)
}
