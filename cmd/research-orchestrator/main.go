package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mikeboe/research-orchestrator/pkg/clients"
	"github.com/mikeboe/research-orchestrator/pkg/config"
	"github.com/mikeboe/research-orchestrator/pkg/embeddings"
	"github.com/mikeboe/research-orchestrator/pkg/llm"
	"github.com/mikeboe/research-orchestrator/pkg/research"
	"github.com/mikeboe/research-orchestrator/pkg/research/tools"
	"github.com/mikeboe/research-orchestrator/pkg/vectorindex"
	"github.com/spf13/cobra"
)

var (
	query     string
	outputDir string
)

func main() {
	// Setup structured logging
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))

	// Load .env file
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, as long as env vars are set
	}

	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "research-orchestrator",
		Short: "A terminal-based research pipeline",
		Long:  `research-orchestrator runs a query through a plan-search-analyze-summarize-report pipeline and prints the final Markdown report.`,
		Run: func(cmd *cobra.Command, args []string) {
			queryFlagChanged := cmd.Flags().Changed("query")

			if !queryFlagChanged {
				// Interactive Mode
				reader := bufio.NewReader(os.Stdin)

				fmt.Print("Enter research query: ")
				input, _ := reader.ReadString('\n')
				query = strings.TrimSpace(input)
				if query == "" {
					slog.Error("Query cannot be empty")
					os.Exit(1)
				}
			} else {
				if query == "" {
					slog.Error("--query flag provided but empty")
					os.Exit(1)
				}
			}

			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			slog.Info("Starting research", "query", query)

			ctx := context.Background()

			model, err := clients.GoogleAI(ctx, cfg.Model, cfg.GoogleApiKey)
			if err != nil {
				slog.Error("Failed to create LLM client", "error", err)
				os.Exit(1)
			}
			chatter := llm.NewClient(model)

			embedder, err := embeddings.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey)
			if err != nil {
				slog.Error("Failed to create embedder", "error", err)
				os.Exit(1)
			}
			index := vectorindex.NewIndex(embedder, slog.Default())

			provider := tools.NewSerperClient(cfg.SerperApiKey, slog.Default())
			loader := tools.NewPageLoader(slog.Default())

			orch := research.NewOrchestrator(chatter, provider, loader, index, research.Config{
				ChunkSize:     cfg.ChunkSize,
				ChunkOverlap:  cfg.ChunkOverlap,
				SearchResults: cfg.SearchResults,
				OutputDir:     cfg.OutputDir,
				Logger:        slog.Default(),
			})

			state := orch.RunState(ctx, query)
			if state.Status == research.StatusError {
				slog.Error("Research failed", "error", state.Error)
				os.Exit(1)
			}

			fmt.Println(state.FinalReport)
		},
	}

	rootCmd.Flags().StringVarP(&query, "query", "q", "", "The research query")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for the saved report")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
