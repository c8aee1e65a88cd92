package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mikeboe/research-orchestrator/pkg/llm"
)

// summarizerInputLimit caps the rendered insight list sent to the model.
const summarizerInputLimit = 6000

const summarizerSystemPrompt = `You are an expert academic writer. Given a user research query and a set of structured findings, write a neutral, academic-style summary.

Requirements:
- Length: 300-500 words.
- Tone: neutral, objective, third-person.
- Structure: 2-4 clear paragraphs (no bullet lists).
- Include: key findings, important statistics, methodologies, and any notable trends or limitations.
- Do NOT invent facts that are not supported by the findings.`

// SummarizerStage condenses the extracted insights into a short narrative
// tailored to the original query.
type SummarizerStage struct {
	llm    llm.Chatter
	logger *slog.Logger
}

func NewSummarizerStage(chatter llm.Chatter, logger *slog.Logger) *SummarizerStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummarizerStage{llm: chatter, logger: logger}
}

func (s *SummarizerStage) Execute(ctx context.Context, state *ResearchState) {
	state.Summary = s.summarize(ctx, state.UserQuery, state.ExtractedInsights)
	s.logger.Info("summarizer: generated summary", "length", len(state.Summary))
}

func (s *SummarizerStage) summarize(ctx context.Context, query string, insights []Insight) string {
	// Normally unreachable: the orchestrator routes empty insights to the
	// error end before this stage runs.
	if len(insights) == 0 {
		return "No analyses available to summarize yet."
	}

	lines := make([]string, 0, len(insights))
	for _, insight := range insights {
		line := fmt.Sprintf("- Finding: %s", insight.Finding)
		if insight.Evidence != "" {
			line += fmt.Sprintf(" | Evidence: %s", insight.Evidence)
		}
		if insight.Source != "" {
			line += fmt.Sprintf(" | Source: %s", insight.Source)
		}
		lines = append(lines, line)
	}
	joined := strings.Join(lines, "\n")
	if runes := []rune(joined); len(runes) > summarizerInputLimit {
		joined = string(runes[:summarizerInputLimit])
	}

	userContent := fmt.Sprintf("User research query:\n%s\n\nStructured findings:\n%s", query, joined)
	summary, err := s.llm.Chat(ctx, summarizerSystemPrompt, []llm.Message{
		{Role: "user", Content: userContent},
	})
	if err != nil {
		s.logger.Warn("summarizer: model call failed, leaving summary empty", "error", err)
		return ""
	}
	return strings.TrimSpace(summary)
}
