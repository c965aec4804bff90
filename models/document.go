package models

import (
	"time"

	"github.com/google/uuid"
)

// ChunkMetadata carries the provenance fields the retriever reads, plus an
// open extension map for anything else an extractor wants to record.
type ChunkMetadata struct {
	SourceFile string         `json:"source_file"`
	ChunkIndex int            `json:"chunk_index"`
	Page       *int           `json:"page,omitempty"` // 0-based at extraction, shown 1-based
	Extra      map[string]any `json:"extra,omitempty"`
}

// EmbeddedChunk is one retrievable unit of document text together with its
// embedding vector and the embedding model that produced it. Immutable once
// stored; the document store owns it after insertion.
type EmbeddedChunk struct {
	ID           uuid.UUID     `json:"id"`
	Content      string        `json:"content"`
	Embedding    []float32     `json:"-"`
	ModelVersion string        `json:"model_version"`
	Metadata     ChunkMetadata `json:"metadata"`
	CreatedAt    time.Time     `json:"created_at"`
}

// RetrievalResult is a query-scoped similarity match from the document store.
// Never persisted; it exists only while one turn's context is assembled.
type RetrievalResult struct {
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`
	Similarity float64       `json:"similarity"` // cosine, 1 = identical, 0 = unrelated
}
