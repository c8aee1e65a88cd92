package research

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/mikeboe/research-orchestrator/pkg/llm"
)

// fakeChatter routes model calls through a caller-supplied function and
// records every call it sees.
type fakeChatter struct {
	fn    func(systemPrompt string, messages []llm.Message) (string, error)
	calls int
}

func (f *fakeChatter) Chat(ctx context.Context, systemPrompt string, messages []llm.Message) (string, error) {
	f.calls++
	if f.fn == nil {
		return "", errors.New("no response configured")
	}
	return f.fn(systemPrompt, messages)
}

// stageChatter answers each stage with a canned response, keyed by a
// distinctive fragment of the stage's system prompt.
func stageChatter(responses map[string]string) *fakeChatter {
	return &fakeChatter{fn: func(systemPrompt string, _ []llm.Message) (string, error) {
		for fragment, response := range responses {
			if strings.Contains(systemPrompt, fragment) {
				return response, nil
			}
		}
		return "", errors.New("unexpected stage prompt")
	}}
}

const (
	plannerPromptFragment    = "research planner"
	analyzerPromptFragment   = "research analyst"
	summarizerPromptFragment = "academic writer"
	reporterPromptFragment   = "report writer"
)

// fakeProvider returns one scripted batch of results per invocation.
type fakeProvider struct {
	mu      sync.Mutex
	batches [][]SearchResult
	err     error
	queries []string
}

func (f *fakeProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

type fakeLoader struct {
	texts []string
	urls  []string
}

func (f *fakeLoader) ExtractContent(ctx context.Context, urls []string) []string {
	f.urls = append(f.urls, urls...)
	return f.texts
}

type fakeIndexer struct {
	mu     sync.Mutex
	chunks []string
	err    error
}

func (f *fakeIndexer) AddTexts(ctx context.Context, texts []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.chunks = append(f.chunks, texts...)
	return nil
}
