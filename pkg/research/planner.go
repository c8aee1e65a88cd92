package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mikeboe/research-orchestrator/pkg/llm"
)

const plannerSystemPrompt = `You are a precise AI research planner. Given a user research query, you must return a JSON object that decomposes the work into topics, search queries, and analysis steps.

Requirements:
- Respond with VALID JSON only (no markdown, no comments, no extra text).
- The top-level object MUST have exactly these keys:
  - "research_topics": array of strings
  - "search_queries": array of strings
  - "analysis_steps": array of strings
- Each string should be concise but informative.`

var defaultAnalysisSteps = []string{
	"Review the gathered materials and identify key themes.",
	"Compare and contrast differing viewpoints.",
	"Synthesize findings into a coherent explanation.",
}

// Plan is the planner's structured decomposition of a query.
type Plan struct {
	ResearchTopics []string `json:"research_topics"`
	SearchQueries  []string `json:"search_queries"`
	AnalysisSteps  []string `json:"analysis_steps"`
}

// PlannerStage turns a free-text query into a research plan via one model
// call with a strict JSON contract. It never fails: any decode problem
// falls back to a deterministic default plan.
type PlannerStage struct {
	llm    llm.Chatter
	logger *slog.Logger
}

func NewPlannerStage(chatter llm.Chatter, logger *slog.Logger) *PlannerStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlannerStage{llm: chatter, logger: logger}
}

func (p *PlannerStage) Execute(ctx context.Context, state *ResearchState) {
	plan := p.plan(ctx, state.UserQuery)
	state.ResearchTopics = plan.ResearchTopics
	state.SearchQueries = plan.SearchQueries
	state.AnalysisSteps = plan.AnalysisSteps
	p.logger.Info("planner: generated plan",
		"topics", len(state.ResearchTopics),
		"queries", len(state.SearchQueries),
		"steps", len(state.AnalysisSteps))
}

func (p *PlannerStage) plan(ctx context.Context, query string) Plan {
	fallback := defaultPlan(query)

	raw, err := p.llm.Chat(ctx, plannerSystemPrompt, []llm.Message{
		{Role: "user", Content: fmt.Sprintf("User research query:\n%s", query)},
	})
	if err != nil {
		p.logger.Warn("planner: model call failed, using default plan", "error", err)
		return fallback
	}

	// Pointer fields distinguish "missing" from "empty": a missing key or a
	// value that is not an array of strings rejects the whole response.
	var decoded struct {
		ResearchTopics *[]string `json:"research_topics"`
		SearchQueries  *[]string `json:"search_queries"`
		AnalysisSteps  *[]string `json:"analysis_steps"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		p.logger.Info("planner: failed to parse JSON plan, using default plan", "error", err)
		return fallback
	}
	if decoded.ResearchTopics == nil || decoded.SearchQueries == nil || decoded.AnalysisSteps == nil {
		p.logger.Info("planner: plan is missing required fields, using default plan")
		return fallback
	}

	return Plan{
		ResearchTopics: *decoded.ResearchTopics,
		SearchQueries:  *decoded.SearchQueries,
		AnalysisSteps:  *decoded.AnalysisSteps,
	}
}

func defaultPlan(query string) Plan {
	steps := make([]string, len(defaultAnalysisSteps))
	copy(steps, defaultAnalysisSteps)
	return Plan{
		ResearchTopics: []string{query},
		SearchQueries:  []string{query},
		AnalysisSteps:  steps,
	}
}
