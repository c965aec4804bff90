package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"docchat-backend/models"
	"docchat-backend/storage"

	"github.com/google/uuid"
)

// DocumentWriter is the slice of the document store the pipeline writes to.
type DocumentWriter interface {
	Insert(ctx context.Context, chunk *models.EmbeddedChunk) error
	CountBySource(ctx context.Context, sourceFile, modelVersion string) (int, error)
	DeleteBySource(ctx context.Context, sourceFile, modelVersion string) (int64, error)
}

// IngestService turns the PDFs of the source bucket into embedded chunks in
// the document store. One pass per invocation; documents are processed
// sequentially and in isolation, so a single document's failure never aborts
// the run, and a single chunk's failure never aborts its document.
type IngestService struct {
	store     storage.Storage
	extractor PageExtractor
	embedder  Embedder
	documents DocumentWriter
	chunkSize int
	overlap   int
	force     bool
}

// IngestServiceOption is a functional option for IngestService.
type IngestServiceOption func(*IngestService)

// IngestWithStorage sets the source object storage.
func IngestWithStorage(s storage.Storage) IngestServiceOption {
	return func(svc *IngestService) {
		svc.store = s
	}
}

// IngestWithExtractor sets the page extractor.
func IngestWithExtractor(e PageExtractor) IngestServiceOption {
	return func(svc *IngestService) {
		svc.extractor = e
	}
}

// IngestWithEmbedder sets the embedder.
func IngestWithEmbedder(e Embedder) IngestServiceOption {
	return func(svc *IngestService) {
		svc.embedder = e
	}
}

// IngestWithDocumentWriter sets the document store writer.
func IngestWithDocumentWriter(w DocumentWriter) IngestServiceOption {
	return func(svc *IngestService) {
		svc.documents = w
	}
}

// IngestWithChunking sets the chunk window size and overlap in characters.
func IngestWithChunking(chunkSize, overlap int) IngestServiceOption {
	return func(svc *IngestService) {
		svc.chunkSize = chunkSize
		svc.overlap = overlap
	}
}

// IngestWithForce clears previously stored chunks of a document before
// re-ingesting it instead of skipping the document.
func IngestWithForce(force bool) IngestServiceOption {
	return func(svc *IngestService) {
		svc.force = force
	}
}

// NewIngestService creates an ingestion service.
func NewIngestService(opts ...IngestServiceOption) *IngestService {
	svc := &IngestService{extractor: PDFExtractor{}}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	DocumentsFound    int
	DocumentsIngested int
	DocumentsSkipped  int
	DocumentsFailed   int
	ChunksStored      int
	ChunksFailed      int
}

// Run executes one ingestion pass. An empty bucket terminates cleanly with
// an empty report; only listing failures and invalid configuration abort the
// run as a whole.
func (s *IngestService) Run(ctx context.Context) (*IngestReport, error) {
	if s.store == nil {
		return nil, errors.New("storage not set")
	}
	if s.embedder == nil {
		return nil, errors.New("embedder not set")
	}
	if s.documents == nil {
		return nil, errors.New("document writer not set")
	}
	if s.chunkSize <= 0 || s.overlap < 0 || s.overlap >= s.chunkSize {
		return nil, fmt.Errorf("%w: chunk size %d, overlap %d", ErrInvalidChunking, s.chunkSize, s.overlap)
	}

	objects, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list source bucket: %w", err)
	}

	var pdfs []string
	for _, obj := range objects {
		if strings.HasSuffix(strings.ToLower(obj.Name), ".pdf") {
			pdfs = append(pdfs, obj.Name)
		}
	}

	report := &IngestReport{DocumentsFound: len(pdfs)}
	if len(pdfs) == 0 {
		log.Println("No PDF files found in the source bucket")
		return report, nil
	}
	log.Printf("Found %d PDF files in the source bucket", len(pdfs))

	for _, name := range pdfs {
		s.ingestDocument(ctx, name, report)
	}

	return report, nil
}

func (s *IngestService) ingestDocument(ctx context.Context, name string, report *IngestReport) {
	log.Printf("Processing: %s", name)
	modelVersion := s.embedder.ModelVersion()

	existing, err := s.documents.CountBySource(ctx, name, modelVersion)
	if err != nil {
		log.Printf("Warning: failed to check existing chunks for %s: %v", name, err)
	} else if existing > 0 {
		if !s.force {
			log.Printf("Skipping %s (already ingested: %d chunks)", name, existing)
			report.DocumentsSkipped++
			return
		}
		deleted, err := s.documents.DeleteBySource(ctx, name, modelVersion)
		if err != nil {
			log.Printf("Error clearing prior chunks for %s: %v", name, err)
			report.DocumentsFailed++
			return
		}
		log.Printf("Cleared %d prior chunks for %s", deleted, name)
	}

	body, err := s.store.Download(ctx, name)
	if err != nil {
		log.Printf("Error downloading %s: %v", name, err)
		report.DocumentsFailed++
		return
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		log.Printf("Error reading %s: %v", name, err)
		report.DocumentsFailed++
		return
	}

	pages, err := s.extractor.ExtractPages(data)
	if err != nil {
		log.Printf("Error extracting %s: %v", name, err)
		report.DocumentsFailed++
		return
	}

	stored, failed := 0, 0
	chunkIndex := 0
	for pageNum, pageText := range pages {
		pieces, err := SplitText(pageText, s.chunkSize, s.overlap)
		if err != nil {
			// Parameters were validated in Run; treat as a document failure.
			log.Printf("Error chunking %s page %d: %v", name, pageNum, err)
			report.DocumentsFailed++
			return
		}
		for _, piece := range pieces {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			page := pageNum
			chunk := &models.EmbeddedChunk{
				ID:           uuid.New(),
				Content:      piece,
				ModelVersion: modelVersion,
				Metadata: models.ChunkMetadata{
					SourceFile: name,
					ChunkIndex: chunkIndex,
					Page:       &page,
				},
			}
			chunkIndex++

			vector, err := s.embedder.EmbedDocument(ctx, piece)
			if err != nil {
				log.Printf("Error embedding chunk %d of %s: %v", chunk.Metadata.ChunkIndex, name, err)
				failed++
				continue
			}
			chunk.Embedding = vector

			if err := s.documents.Insert(ctx, chunk); err != nil {
				log.Printf("Error storing chunk %d of %s: %v", chunk.Metadata.ChunkIndex, name, err)
				failed++
				continue
			}
			stored++
		}
	}

	report.DocumentsIngested++
	report.ChunksStored += stored
	report.ChunksFailed += failed
	log.Printf("Ingested %s (%d chunks stored, %d failed)", name, stored, failed)
}
