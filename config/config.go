package config

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults for the tuning knobs. Chunk size and overlap match the values the
// ingestion corpus was originally built with; changing them requires
// re-ingesting with -force so stored chunk boundaries stay consistent.
const (
	DefaultChunkSize           = 1000
	DefaultChunkOverlap        = 200
	DefaultTopK                = 5
	DefaultSimilarityThreshold = 0.75
	DefaultEmbeddingModel      = "models/text-embedding-004"
	DefaultLLMModel            = "gemini-1.5-flash"
)

// Config is the full startup configuration, read once from the environment.
// There is no runtime reconfiguration.
type Config struct {
	Port        string
	DatabaseURL string

	GeminiAPIKey   string
	LLMModel       string
	EmbeddingModel string

	SearchAPIKey   string
	SearchEngineID string

	// bcrypt hash of the gate password, produced by cmd/hash-password.
	PasswordHash string

	ChunkSize           int
	ChunkOverlap        int
	TopK                int
	SimilarityThreshold float64
}

// FromEnv builds a Config from environment variables. Missing credentials
// shared by every binary (Gemini key, database URL) are fatal configuration
// errors; tuning knobs fall back to defaults. Binary-specific secrets
// (password hash, search keys) are validated by the binary that needs them.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:           os.Getenv("PORT"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		LLMModel:       os.Getenv("LLM_MODEL"),
		EmbeddingModel: os.Getenv("EMBEDDING_MODEL"),
		SearchAPIKey:   os.Getenv("SEARCH_API_KEY"),
		SearchEngineID: os.Getenv("SEARCH_ENGINE_ID"),
		PasswordHash:   os.Getenv("CHATBOT_PASSWORD_HASH"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = DefaultLLMModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}

	var err error
	if cfg.ChunkSize, err = intEnv("CHUNK_SIZE", DefaultChunkSize); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = intEnv("CHUNK_OVERLAP", DefaultChunkOverlap); err != nil {
		return nil, err
	}
	if cfg.TopK, err = intEnv("RETRIEVAL_TOP_K", DefaultTopK); err != nil {
		return nil, err
	}
	if cfg.SimilarityThreshold, err = floatEnv("SIMILARITY_THRESHOLD", DefaultSimilarityThreshold); err != nil {
		return nil, err
	}

	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be non-negative and smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if cfg.SimilarityThreshold < 0 || cfg.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("SIMILARITY_THRESHOLD (%g) must be between 0 and 1", cfg.SimilarityThreshold)
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return v, nil
}

func floatEnv(name string, fallback float64) (float64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return v, nil
}
