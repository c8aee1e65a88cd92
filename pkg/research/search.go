package research

import (
	"context"
	"log/slog"

	"github.com/mikeboe/research-orchestrator/pkg/splitter"
)

// SearchProvider returns records for a query. Implementations must degrade
// to placeholder records instead of erroring when the backing service is
// unreachable; the error return is for genuinely unexpected conditions.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// ContentLoader fetches full page text for a list of URLs, best effort.
// Failed URLs are silently omitted from the result.
type ContentLoader interface {
	ExtractContent(ctx context.Context, urls []string) []string
}

// Indexer receives extracted page texts for later similarity queries.
type Indexer interface {
	AddTexts(ctx context.Context, texts []string) error
}

// SearchStage runs the provider over each planned query and appends all
// results in order. As a side effect it loads full page content for the
// result URLs and feeds it into the indexer; that path is fire-and-forget
// and can never alter the search results or the run status.
type SearchStage struct {
	provider   SearchProvider
	loader     ContentLoader
	indexer    Indexer
	splitter   *splitter.TextSplitter
	maxResults int
	logger     *slog.Logger
}

func NewSearchStage(provider SearchProvider, loader ContentLoader, indexer Indexer, chunkSize, chunkOverlap, maxResults int, logger *slog.Logger) *SearchStage {
	if logger == nil {
		logger = slog.Default()
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &SearchStage{
		provider:   provider,
		loader:     loader,
		indexer:    indexer,
		splitter:   splitter.NewRecursiveCharacterTextSplitter(chunkSize, chunkOverlap),
		maxResults: maxResults,
		logger:     logger,
	}
}

func (s *SearchStage) Execute(ctx context.Context, state *ResearchState) {
	// Counts attempts, not successes: incremented exactly once per
	// invocation so the orchestrator can bound its retry edge.
	state.SearchAttempts++

	queries := state.SearchQueries
	if len(queries) == 0 {
		queries = []string{state.UserQuery}
	}

	results := []SearchResult{}
	for _, q := range queries {
		s.logger.Info("search: running query", "query", q)
		records, err := s.provider.Search(ctx, q, s.maxResults)
		if err != nil {
			s.logger.Warn("search: provider failed for query", "query", q, "error", err)
			continue
		}
		results = append(results, records...)
	}
	state.SearchResults = results
	s.logger.Info("search: attempt completed",
		"attempt", state.SearchAttempts,
		"results", len(state.SearchResults))

	s.indexResults(ctx, results)
}

// indexResults loads full content for the result URLs and pushes it into
// the embedding index. Every failure here is logged and swallowed.
func (s *SearchStage) indexResults(ctx context.Context, results []SearchResult) {
	if s.loader == nil || s.indexer == nil {
		return
	}

	var urls []string
	for _, r := range results {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	if len(urls) == 0 {
		return
	}

	texts := s.loader.ExtractContent(ctx, urls)
	if len(texts) == 0 {
		return
	}

	var chunks []string
	for _, text := range texts {
		split, err := s.splitter.SplitText(text)
		if err != nil {
			s.logger.Warn("search: failed to split text for indexing", "error", err)
			continue
		}
		chunks = append(chunks, split...)
	}
	if len(chunks) == 0 {
		return
	}

	if err := s.indexer.AddTexts(ctx, chunks); err != nil {
		s.logger.Warn("search: failed to index documents", "error", err)
		return
	}
	s.logger.Info("search: indexed documents", "urls", len(urls), "chunks", len(chunks))
}
