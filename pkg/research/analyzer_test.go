package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mikeboe/research-orchestrator/pkg/llm"
)

func TestAnalyzerExtractsInsights(t *testing.T) {
	chatter := &fakeChatter{fn: func(_ string, _ []llm.Message) (string, error) {
		return `[{"finding": "Adoption doubled", "evidence": "from 5% to 10%", "source": "report"}]`, nil
	}}

	state := NewState("q")
	state.SearchResults = []SearchResult{
		{Title: "a", Content: "text one", Source: "site-a"},
		{Title: "b", Content: "text two", Source: "site-b"},
	}
	NewAnalyzerStage(chatter, nil).Execute(context.Background(), state)

	if len(state.ExtractedInsights) != 2 {
		t.Fatalf("insights = %d, want one per result", len(state.ExtractedInsights))
	}
	if state.Status == StatusError {
		t.Error("unexpected error status")
	}
	got := state.ExtractedInsights[0]
	if got.Finding != "Adoption doubled" || got.Evidence != "from 5% to 10%" || got.Source != "report" {
		t.Errorf("insight = %+v", got)
	}
}

func TestAnalyzerEmptyInsightsSetsErrorState(t *testing.T) {
	tests := []struct {
		name    string
		results []SearchResult
		fn      func(string, []llm.Message) (string, error)
	}{
		{
			name:    "no search results",
			results: nil,
			fn:      nil,
		},
		{
			name:    "model returns empty array for everything",
			results: []SearchResult{{Content: "text"}},
			fn: func(_ string, _ []llm.Message) (string, error) {
				return "[]", nil
			},
		},
		{
			name:    "model fails for everything",
			results: []SearchResult{{Content: "text"}},
			fn: func(_ string, _ []llm.Message) (string, error) {
				return "", errors.New("model unavailable")
			},
		},
		{
			name:    "results without content or snippet",
			results: []SearchResult{{Title: "bare"}},
			fn:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState("q")
			state.SearchResults = tt.results
			NewAnalyzerStage(&fakeChatter{fn: tt.fn}, nil).Execute(context.Background(), state)

			if len(state.ExtractedInsights) != 0 {
				t.Errorf("insights = %v, want none", state.ExtractedInsights)
			}
			if state.Status != StatusError {
				t.Errorf("Status = %q, want %q", state.Status, StatusError)
			}
			if state.Error != ErrNoInsights {
				t.Errorf("Error = %q, want %q", state.Error, ErrNoInsights)
			}
		})
	}
}

func TestAnalyzerTruncatesLongContent(t *testing.T) {
	var sent string
	chatter := &fakeChatter{fn: func(_ string, messages []llm.Message) (string, error) {
		sent = messages[0].Content
		return `[{"finding": "f", "evidence": "", "source": "s"}]`, nil
	}}

	long := strings.Repeat("é", analyzerContentLimit+500)
	state := NewState("q")
	state.SearchResults = []SearchResult{{Content: long, Source: "s"}}
	NewAnalyzerStage(chatter, nil).Execute(context.Background(), state)

	if strings.Count(sent, "é") != analyzerContentLimit {
		t.Errorf("sent %d content runes, want %d", strings.Count(sent, "é"), analyzerContentLimit)
	}
}

func TestAnalyzerFallsBackToSnippet(t *testing.T) {
	var sent string
	chatter := &fakeChatter{fn: func(_ string, messages []llm.Message) (string, error) {
		sent = messages[0].Content
		return `[{"finding": "f", "evidence": "", "source": "s"}]`, nil
	}}

	state := NewState("q")
	state.SearchResults = []SearchResult{{Snippet: "only a snippet", Source: "s"}}
	NewAnalyzerStage(chatter, nil).Execute(context.Background(), state)

	if !strings.Contains(sent, "only a snippet") {
		t.Errorf("prompt %q does not contain the snippet", sent)
	}
	if len(state.ExtractedInsights) != 1 {
		t.Errorf("insights = %d, want 1", len(state.ExtractedInsights))
	}
}

func TestAnalyzerSourceFallbackChain(t *testing.T) {
	tests := []struct {
		name   string
		result SearchResult
		want   string
	}{
		{"source present", SearchResult{Content: "c", Source: "site", URL: "https://x"}, "site"},
		{"url fallback", SearchResult{Content: "c", URL: "https://x"}, "https://x"},
		{"unknown fallback", SearchResult{Content: "c"}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Empty model source makes the stage substitute the result's.
			chatter := &fakeChatter{fn: func(_ string, _ []llm.Message) (string, error) {
				return `[{"finding": "f", "evidence": "", "source": ""}]`, nil
			}}

			state := NewState("q")
			state.SearchResults = []SearchResult{tt.result}
			NewAnalyzerStage(chatter, nil).Execute(context.Background(), state)

			if len(state.ExtractedInsights) != 1 {
				t.Fatalf("insights = %d, want 1", len(state.ExtractedInsights))
			}
			if got := state.ExtractedInsights[0].Source; got != tt.want {
				t.Errorf("Source = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyzerDiscardsEmptyFindings(t *testing.T) {
	chatter := &fakeChatter{fn: func(_ string, _ []llm.Message) (string, error) {
		return `[
			{"finding": "   ", "evidence": "noise", "source": "s"},
			{"finding": "kept", "evidence": "e", "source": "s"}
		]`, nil
	}}

	state := NewState("q")
	state.SearchResults = []SearchResult{{Content: "text"}}
	NewAnalyzerStage(chatter, nil).Execute(context.Background(), state)

	if len(state.ExtractedInsights) != 1 || state.ExtractedInsights[0].Finding != "kept" {
		t.Errorf("insights = %v, want only the non-blank finding", state.ExtractedInsights)
	}
}

func TestAnalyzerPartialParseFailure(t *testing.T) {
	// One result parses, one does not; the stage keeps what it can.
	call := 0
	chatter := &fakeChatter{fn: func(_ string, _ []llm.Message) (string, error) {
		call++
		if call == 1 {
			return "not json at all", nil
		}
		return `[{"finding": "f", "evidence": "", "source": "s"}]`, nil
	}}

	state := NewState("q")
	state.SearchResults = []SearchResult{{Content: "one"}, {Content: "two"}}
	NewAnalyzerStage(chatter, nil).Execute(context.Background(), state)

	if len(state.ExtractedInsights) != 1 {
		t.Errorf("insights = %d, want 1", len(state.ExtractedInsights))
	}
	if state.Status == StatusError {
		t.Error("partial failure must not set error status")
	}
}
