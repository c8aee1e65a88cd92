package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mikeboe/research-orchestrator/pkg/clients"
	"github.com/mikeboe/research-orchestrator/pkg/config"
	"github.com/mikeboe/research-orchestrator/pkg/database"
	"github.com/mikeboe/research-orchestrator/pkg/embeddings"
	"github.com/mikeboe/research-orchestrator/pkg/llm"
	"github.com/mikeboe/research-orchestrator/pkg/research"
	"github.com/mikeboe/research-orchestrator/pkg/research/tools"
	"github.com/mikeboe/research-orchestrator/pkg/server"
	"github.com/mikeboe/research-orchestrator/pkg/vectorindex"
	"github.com/mikeboe/research-orchestrator/pkg/vectorstore"
)

// fanoutIndexer writes chunks to every configured index. The in-memory
// index always receives them; the pgvector store is added when a
// database is configured.
type fanoutIndexer struct {
	targets []research.Indexer
}

func (f *fanoutIndexer) AddTexts(ctx context.Context, texts []string) error {
	var firstErr error
	for _, t := range f.targets {
		if err := t.AddTexts(ctx, texts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Database is optional; without it the async runs API is disabled and
	// only the synchronous research endpoint is served.
	var db *database.PostgresDB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	} else {
		log.Println("DATABASE_URL not set, running without run persistence")
	}

	// LLM client
	model, err := clients.GoogleAI(ctx, cfg.Model, cfg.GoogleApiKey)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	chatter := llm.NewClient(model)

	// Embeddings + vector index
	embedder, err := embeddings.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	memIndex := vectorindex.NewIndex(embedder, logger)

	indexer := &fanoutIndexer{targets: []research.Indexer{memIndex}}
	if db != nil {
		if err := db.PrepareEmbeddings(ctx, cfg.CollectionName, embedder.Dimension()); err != nil {
			log.Fatalf("Failed to prepare embeddings storage: %v", err)
		}
		store, err := vectorstore.NewPGVectorStore(db.Pool, cfg.CollectionName)
		if err != nil {
			log.Fatalf("Failed to create vector store: %v", err)
		}
		indexer.targets = append(indexer.targets, vectorstore.NewIndexer(store, embedder))
	}

	// Search + content extraction
	provider := tools.NewSerperClient(cfg.SerperApiKey, logger)
	loader := tools.NewPageLoader(logger)

	researchCfg := research.Config{
		ChunkSize:     cfg.ChunkSize,
		ChunkOverlap:  cfg.ChunkOverlap,
		SearchResults: cfg.SearchResults,
		OutputDir:     cfg.OutputDir,
		Logger:        logger,
	}

	svc := server.NewService(db, chatter, provider, loader, indexer, researchCfg)
	handler := server.NewHandler(svc, memIndex, db != nil)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Mcp-Session-Id"},
		ExposeHeaders:    []string{"Content-Length", "Mcp-Session-Id"},
		AllowCredentials: true,
	}))

	handler.RegisterRoutes(r)

	fmt.Printf("Server starting on port %s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
