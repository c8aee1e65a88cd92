package research

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mikeboe/research-orchestrator/pkg/llm"
)

// node is a state in the orchestration graph.
type node string

const (
	nodePlanner    node = "planner"
	nodeSearch     node = "search"
	nodeAnalyzer   node = "analyzer"
	nodeSummarizer node = "summarizer"
	nodeReporter   node = "reporter"
	nodeErrorEnd   node = "error_end"
	nodeDone       node = "done"
)

// maxSearchAttempts bounds the search retry edge. The search node loops
// back on itself while results are empty and fewer attempts have run.
const maxSearchAttempts = 2

// errDecodeState is reported when a stage fails in a way the pipeline's
// local fallbacks cannot absorb (a panic inside a node).
const errDecodeState = "Failed to decode final orchestration state."

// Config carries the orchestrator knobs that are not collaborators.
type Config struct {
	ChunkSize     int
	ChunkOverlap  int
	SearchResults int
	OutputDir     string
	Logger        *slog.Logger
}

// Orchestrator wires the five stages into a directed graph over a shared
// ResearchState: planner -> search -> (retry) -> analyzer -> (error end |
// summarizer) -> reporter -> done. Every path terminates: the retry loop
// is bounded by the attempt cap and an empty insight set short-circuits.
type Orchestrator struct {
	planner    *PlannerStage
	search     *SearchStage
	analyzer   *AnalyzerStage
	summarizer *SummarizerStage
	reporter   *ReportStage
	logger     *slog.Logger

	// OnStateChange, if set, is invoked with a copy of the state after
	// every node. Callers use it to persist intermediate progress.
	OnStateChange func(node string, state ResearchState)
}

// transition executes one node and names the next one.
type transition func(ctx context.Context, state *ResearchState) node

func NewOrchestrator(chatter llm.Chatter, provider SearchProvider, loader ContentLoader, indexer Indexer, cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		planner:    NewPlannerStage(chatter, logger),
		search:     NewSearchStage(provider, loader, indexer, cfg.ChunkSize, cfg.ChunkOverlap, cfg.SearchResults, logger),
		analyzer:   NewAnalyzerStage(chatter, logger),
		summarizer: NewSummarizerStage(chatter, logger),
		reporter:   NewReportStage(chatter, cfg.OutputDir, logger),
		logger:     logger,
	}
}

// graph returns the transition table. Conditional routing lives here, next
// to the node order, rather than inside the stages.
func (o *Orchestrator) graph() map[node]transition {
	return map[node]transition{
		nodePlanner: func(ctx context.Context, state *ResearchState) node {
			o.planner.Execute(ctx, state)
			return nodeSearch
		},
		nodeSearch: func(ctx context.Context, state *ResearchState) node {
			o.search.Execute(ctx, state)
			if len(state.SearchResults) == 0 && state.SearchAttempts < maxSearchAttempts {
				return nodeSearch
			}
			// Once the attempt cap is reached the analyzer proceeds even
			// with empty results; it then trips the error edge itself.
			return nodeAnalyzer
		},
		nodeAnalyzer: func(ctx context.Context, state *ResearchState) node {
			o.analyzer.Execute(ctx, state)
			if len(state.ExtractedInsights) == 0 {
				return nodeErrorEnd
			}
			return nodeSummarizer
		},
		nodeSummarizer: func(ctx context.Context, state *ResearchState) node {
			o.summarizer.Execute(ctx, state)
			return nodeReporter
		},
		nodeReporter: func(ctx context.Context, state *ResearchState) node {
			o.reporter.Execute(ctx, state)
			return nodeDone
		},
	}
}

// RunState executes the research graph for a query and returns the final
// state. It never returns a Go error: pipeline-internal failures land in
// the state's Status/Error fields, and an unexpected panic inside a node
// is reported as a generic orchestration error rather than a crash.
func (o *Orchestrator) RunState(ctx context.Context, query string) (final *ResearchState) {
	state := NewState(query)
	final = state

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("orchestrator: run aborted by panic", "panic", r)
			state.Status = StatusError
			state.Error = errDecodeState
		}
	}()

	o.logger.Info("orchestrator: starting run", "query", query)
	state.Status = StatusRunning

	graph := o.graph()
	current := nodePlanner
	for current != nodeDone && current != nodeErrorEnd {
		step, ok := graph[current]
		if !ok {
			o.logger.Error("orchestrator: unknown node", "node", string(current))
			state.Status = StatusError
			state.Error = errDecodeState
			return state
		}
		executed := current
		current = step(ctx, state)
		o.notify(executed, state)
	}

	if current == nodeErrorEnd {
		if state.Status != StatusError {
			state.Status = StatusError
			state.Error = ErrNoInsights
		}
		o.logger.Info("orchestrator: finished with error status", "error", state.Error)
		return state
	}

	if state.Status != StatusError {
		state.Status = StatusCompleted
		state.Error = ""
		o.logger.Info("orchestrator: completed run")
	}
	return state
}

// Run executes the pipeline and returns only the final report. When the
// run ends in an error status, the state's error message is returned as a
// Go error and the report is empty.
func (o *Orchestrator) Run(ctx context.Context, query string) (string, error) {
	state := o.RunState(ctx, query)
	if state.Status == StatusError {
		msg := state.Error
		if msg == "" {
			msg = "orchestration failed"
		}
		return "", errors.New(msg)
	}
	return state.FinalReport, nil
}

func (o *Orchestrator) notify(executed node, state *ResearchState) {
	if o.OnStateChange != nil {
		o.OnStateChange(string(executed), *state)
	}
}
