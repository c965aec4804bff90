package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"docchat-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DocumentRepository handles database operations for embedded document
// chunks in the documents table.
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Insert appends one chunk row. No dedup and no update-in-place: callers
// decide whether to clear prior rows for the source file first.
func (r *DocumentRepository) Insert(ctx context.Context, chunk *models.EmbeddedChunk) error {
	metadataJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO documents (id, content, embedding, source_file, chunk_index, page, model_version, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.Exec(ctx, query,
		chunk.ID,
		chunk.Content,
		pgvector.NewVector(chunk.Embedding),
		chunk.Metadata.SourceFile,
		chunk.Metadata.ChunkIndex,
		chunk.Metadata.Page,
		chunk.ModelVersion,
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk %d of %s: %w",
			chunk.Metadata.ChunkIndex, chunk.Metadata.SourceFile, err)
	}
	return nil
}

// Search returns at most topK chunks whose cosine similarity to queryVector
// is at least threshold, most similar first. Only rows embedded by
// modelVersion participate: vectors from a different embedding model are
// not comparable and never rank against each other. An empty result is a
// normal outcome, not an error.
func (r *DocumentRepository) Search(
	ctx context.Context,
	queryVector []float32,
	modelVersion string,
	topK int,
	threshold float64,
) ([]models.RetrievalResult, error) {
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}

	query := `
		SELECT
			content,
			source_file,
			chunk_index,
			page,
			metadata,
			1 - (embedding <=> $1) AS similarity
		FROM documents
		WHERE
			model_version = $2
			AND 1 - (embedding <=> $1) >= $3
		ORDER BY
			embedding <=> $1
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(queryVector), modelVersion, threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var results []models.RetrievalResult
	for rows.Next() {
		var res models.RetrievalResult
		var metadataJSON []byte
		err := rows.Scan(
			&res.Content,
			&res.Metadata.SourceFile,
			&res.Metadata.ChunkIndex,
			&res.Metadata.Page,
			&metadataJSON,
			&res.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}

		if len(metadataJSON) > 0 {
			var meta models.ChunkMetadata
			if err := json.Unmarshal(metadataJSON, &meta); err != nil {
				return nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			res.Metadata.Extra = meta.Extra
		}

		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return results, nil
}

// CountBySource returns how many chunks are stored for a source file under
// the given embedding model version.
func (r *DocumentRepository) CountBySource(ctx context.Context, sourceFile, modelVersion string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM documents WHERE source_file = $1 AND model_version = $2",
		sourceFile, modelVersion,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks for %s: %w", sourceFile, err)
	}
	return count, nil
}

// DeleteBySource removes all chunks of a source file for the given embedding
// model version and reports how many rows went away.
func (r *DocumentRepository) DeleteBySource(ctx context.Context, sourceFile, modelVersion string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		"DELETE FROM documents WHERE source_file = $1 AND model_version = $2",
		sourceFile, modelVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks for %s: %w", sourceFile, err)
	}
	return tag.RowsAffected(), nil
}
