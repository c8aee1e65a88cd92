package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mikeboe/research-orchestrator/pkg/llm"
)

// ErrNoInsights is the fixed message set on the state when analysis yields
// nothing. The orchestrator's error edge keys off the empty insight list.
const ErrNoInsights = "Analyzer produced no insights from the search results."

// analyzerContentLimit caps how much of a result's content is sent to the
// model per item.
const analyzerContentLimit = 2000

const analyzerSystemPrompt = `You are an AI research analyst. For the given text snippet, extract key findings, statistics, methodologies, and trends.

Return a JSON array of objects with this exact schema:
[
  {
    "finding": string,   // main finding or insight
    "evidence": string,  // brief quote or paraphrase from the text
    "source": string     // short source identifier
  }
]

Rules:
- Respond with VALID JSON ONLY (no markdown, no comments, no extra text).
- If there are no meaningful findings, return an empty JSON array [].`

// AnalyzerStage extracts structured insights from raw search content, one
// model call per result. Per-item parse failures yield zero insights for
// that item rather than failing the stage.
type AnalyzerStage struct {
	llm    llm.Chatter
	logger *slog.Logger
}

func NewAnalyzerStage(chatter llm.Chatter, logger *slog.Logger) *AnalyzerStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzerStage{llm: chatter, logger: logger}
}

func (a *AnalyzerStage) Execute(ctx context.Context, state *ResearchState) {
	insights := a.analyze(ctx, state.SearchResults)
	state.ExtractedInsights = insights
	if len(insights) == 0 {
		state.Status = StatusError
		state.Error = ErrNoInsights
		a.logger.Info("analyzer: no insights extracted, marking error state")
	}
}

func (a *AnalyzerStage) analyze(ctx context.Context, results []SearchResult) []Insight {
	if len(results) == 0 {
		return []Insight{}
	}

	insights := []Insight{}
	for idx, item := range results {
		insights = append(insights, a.analyzeSingle(ctx, idx+1, item)...)
	}
	a.logger.Info("analyzer: extracted structured insights", "count", len(insights))
	return insights
}

func (a *AnalyzerStage) analyzeSingle(ctx context.Context, idx int, item SearchResult) []Insight {
	content := item.Content
	if content == "" {
		content = item.Snippet
	}
	if content == "" {
		return nil
	}
	source := item.Source
	if source == "" {
		source = item.URL
	}
	if source == "" {
		source = "unknown"
	}

	truncated := content
	if runes := []rune(content); len(runes) > analyzerContentLimit {
		truncated = string(runes[:analyzerContentLimit])
	}

	raw, err := a.llm.Chat(ctx, analyzerSystemPrompt, []llm.Message{
		{Role: "user", Content: fmt.Sprintf("Snippet %d (source=%s):\n%s", idx, source, truncated)},
	})
	if err != nil {
		a.logger.Warn("analyzer: model call failed for item", "item", idx, "error", err)
		return nil
	}

	var decoded []struct {
		Finding  string `json:"finding"`
		Evidence string `json:"evidence"`
		Source   string `json:"source"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		a.logger.Info("analyzer: failed to parse insights for item", "item", idx, "error", err)
		return nil
	}

	var cleaned []Insight
	for _, obj := range decoded {
		finding := strings.TrimSpace(obj.Finding)
		if finding == "" {
			continue
		}
		src := strings.TrimSpace(obj.Source)
		if src == "" {
			src = source
		}
		cleaned = append(cleaned, Insight{
			Finding:  finding,
			Evidence: strings.TrimSpace(obj.Evidence),
			Source:   src,
		})
	}
	return cleaned
}
