package research

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mikeboe/research-orchestrator/pkg/llm"
)

func TestPlannerParsesValidPlan(t *testing.T) {
	chatter := &fakeChatter{fn: func(_ string, _ []llm.Message) (string, error) {
		return `{
			"research_topics": ["history of solar power", "grid integration"],
			"search_queries": ["solar power adoption statistics", "solar grid challenges"],
			"analysis_steps": ["compare adoption rates"]
		}`, nil
	}}

	state := NewState("solar power")
	NewPlannerStage(chatter, nil).Execute(context.Background(), state)

	wantTopics := []string{"history of solar power", "grid integration"}
	if !reflect.DeepEqual(state.ResearchTopics, wantTopics) {
		t.Errorf("ResearchTopics = %v, want %v", state.ResearchTopics, wantTopics)
	}
	wantQueries := []string{"solar power adoption statistics", "solar grid challenges"}
	if !reflect.DeepEqual(state.SearchQueries, wantQueries) {
		t.Errorf("SearchQueries = %v, want %v", state.SearchQueries, wantQueries)
	}
	if got := state.AnalysisSteps; len(got) != 1 || got[0] != "compare adoption rates" {
		t.Errorf("AnalysisSteps = %v", got)
	}
}

func TestPlannerFallsBackToDefaultPlan(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"malformed JSON", `{"research_topics": [`, nil},
		{"non-object response", `"just a string"`, nil},
		{"JSON array", `["a", "b"]`, nil},
		{"missing search_queries", `{"research_topics": ["a"], "analysis_steps": ["b"]}`, nil},
		{"wrong field type", `{"research_topics": "a", "search_queries": ["b"], "analysis_steps": ["c"]}`, nil},
		{"model error", "", errors.New("model unavailable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chatter := &fakeChatter{fn: func(_ string, _ []llm.Message) (string, error) {
				return tt.response, tt.err
			}}

			state := NewState("quantum computing")
			NewPlannerStage(chatter, nil).Execute(context.Background(), state)

			if !reflect.DeepEqual(state.ResearchTopics, []string{"quantum computing"}) {
				t.Errorf("ResearchTopics = %v, want query echo", state.ResearchTopics)
			}
			if !reflect.DeepEqual(state.SearchQueries, []string{"quantum computing"}) {
				t.Errorf("SearchQueries = %v, want query echo", state.SearchQueries)
			}
			if !reflect.DeepEqual(state.AnalysisSteps, defaultAnalysisSteps) {
				t.Errorf("AnalysisSteps = %v, want default steps", state.AnalysisSteps)
			}
		})
	}
}

func TestPlannerAcceptsEmptyArrays(t *testing.T) {
	// Present-but-empty arrays are a valid plan, not a fallback trigger.
	chatter := &fakeChatter{fn: func(_ string, _ []llm.Message) (string, error) {
		return `{"research_topics": [], "search_queries": [], "analysis_steps": []}`, nil
	}}

	state := NewState("anything")
	NewPlannerStage(chatter, nil).Execute(context.Background(), state)

	if len(state.ResearchTopics) != 0 || len(state.SearchQueries) != 0 || len(state.AnalysisSteps) != 0 {
		t.Errorf("expected empty plan, got topics=%v queries=%v steps=%v",
			state.ResearchTopics, state.SearchQueries, state.AnalysisSteps)
	}
}

func TestDefaultPlanCopiesSteps(t *testing.T) {
	plan := defaultPlan("q")
	plan.AnalysisSteps[0] = "mutated"
	if defaultAnalysisSteps[0] == "mutated" {
		t.Fatal("defaultPlan shares the package-level step slice")
	}
}
