// Ingest documents from the configured storage backend into the vector store.
//
// Usage:
//
//	go run cmd/ingest-docs/main.go          # ingest new documents, skip existing
//	go run cmd/ingest-docs/main.go -force   # re-ingest everything
package main

import (
	"context"
	"flag"
	"log"

	"docchat-backend/config"
	"docchat-backend/repository"
	"docchat-backend/service"
	"docchat-backend/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

func main() {
	force := flag.Bool("force", false, "delete existing chunks and re-ingest every document")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Invalid DATABASE_URL: %v", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping Postgres: %v", err)
	}

	store, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	ingest := service.NewIngestService(
		service.IngestWithStorage(store),
		service.IngestWithEmbedder(service.NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.EmbeddingModel)),
		service.IngestWithDocumentWriter(repository.NewDocumentRepository(db)),
		service.IngestWithChunking(cfg.ChunkSize, cfg.ChunkOverlap),
		service.IngestWithForce(*force),
	)

	report, err := ingest.Run(ctx)
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}

	log.Printf("Ingestion complete: %d found, %d ingested, %d skipped, %d failed, %d chunks stored (%d chunk failures)",
		report.DocumentsFound, report.DocumentsIngested, report.DocumentsSkipped,
		report.DocumentsFailed, report.ChunksStored, report.ChunksFailed)
}
