package main

import (
	"context"
	"log"

	"docchat-backend/config"
	"docchat-backend/handlers"
	"docchat-backend/repository"
	"docchat-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"google.golang.org/api/option"
)

func main() {
	// Load .env file from current directory first, then project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.PasswordHash == "" {
		log.Fatal("CHATBOT_PASSWORD_HASH is required (generate one with: go run cmd/hash-password/main.go)")
	}

	db, err := initPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize Postgres:", err)
	}
	defer db.Close()

	geminiClient, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatal("Failed to initialize Gemini:", err)
	}
	defer geminiClient.Close()
	log.Println("Gemini client initialized")

	// Initialize repositories
	docRepo := repository.NewDocumentRepository(db)
	historyRepo := repository.NewChatHistoryRepository(db)

	// Initialize services
	embedder := service.NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.EmbeddingModel)
	retriever := service.NewRetriever(embedder, docRepo, cfg.TopK, cfg.SimilarityThreshold)

	var searcher service.WebSearcher
	if cfg.SearchAPIKey != "" && cfg.SearchEngineID != "" {
		searcher = service.NewGoogleSearcher(cfg.SearchAPIKey, cfg.SearchEngineID)
	} else {
		log.Println("Warning: SEARCH_API_KEY/SEARCH_ENGINE_ID not set, web search disabled")
	}

	chatService := service.NewChatService(
		service.ChatWithRetriever(retriever),
		service.ChatWithWebSearcher(searcher),
		service.ChatWithModel(service.NewGeminiChatModel(geminiClient, cfg.LLMModel)),
		service.ChatWithConversationStore(historyRepo),
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg.PasswordHash)
	chatHandler := handlers.NewChatHandler(chatService, historyRepo)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	r.POST("/api/login", authHandler.Login)

	api := r.Group("/api", authHandler.RequireSession)
	api.POST("/chat", chatHandler.Chat)
	api.GET("/history", chatHandler.History)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}

	// Register pgvector types on every connection
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	log.Println("Postgres connection established with pgvector support")
	return pool, nil
}
