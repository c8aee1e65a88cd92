package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mikeboe/research-orchestrator/pkg/database"
	"github.com/mikeboe/research-orchestrator/pkg/llm"
	"github.com/mikeboe/research-orchestrator/pkg/research"
)

// Service runs research pipelines on behalf of the HTTP API. Synchronous
// runs execute in the request goroutine; background runs are persisted as
// rows in research_runs with their logs in research_logs.
type Service struct {
	DB       *database.PostgresDB
	Chatter  llm.Chatter
	Provider research.SearchProvider
	Loader   research.ContentLoader
	Indexer  research.Indexer
	Cfg      research.Config
}

func NewService(db *database.PostgresDB, chatter llm.Chatter, provider research.SearchProvider, loader research.ContentLoader, indexer research.Indexer, cfg research.Config) *Service {
	return &Service{
		DB:       db,
		Chatter:  chatter,
		Provider: provider,
		Loader:   loader,
		Indexer:  indexer,
		Cfg:      cfg,
	}
}

// Run is a persisted research run.
type Run struct {
	ID        uuid.UUID       `json:"id"`
	Query     string          `json:"query"`
	Status    string          `json:"status"`
	Report    *string         `json:"report,omitempty"`
	Error     *string         `json:"error,omitempty"`
	State     json.RawMessage `json:"state,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LogEntry is one persisted pipeline log record.
type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

// RunSync executes the pipeline in the calling goroutine and returns the
// final state. Used by the synchronous research endpoint and the CLI
// path; requires no database.
func (s *Service) RunSync(ctx context.Context, query string) *research.ResearchState {
	orch := research.NewOrchestrator(s.Chatter, s.Provider, s.Loader, s.Indexer, s.Cfg)
	return orch.RunState(ctx, query)
}

// CreateRun persists a pending run and starts a background worker for it.
func (s *Service) CreateRun(ctx context.Context, query string) (*Run, error) {
	runID := uuid.New()
	insert := `
		INSERT INTO research_runs (id, query, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, query, status, created_at, updated_at
	`

	run := &Run{}
	err := s.DB.Pool.QueryRow(ctx, insert, runID, query).Scan(
		&run.ID, &run.Query, &run.Status, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	go s.runWorker(run.ID, query)

	return run, nil
}

func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, query, status, report, error, state, created_at, updated_at
		FROM research_runs
		WHERE id = $1
	`
	run := &Run{}
	err := s.DB.Pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Query, &run.Status, &run.Report, &run.Error, &run.State, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (s *Service) ListRuns(ctx context.Context) ([]Run, error) {
	query := `
		SELECT id, query, status, report, error, created_at, updated_at
		FROM research_runs
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := s.DB.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Query, &run.Status, &run.Report, &run.Error, &run.CreatedAt, &run.UpdatedAt); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (s *Service) GetRunLogs(ctx context.Context, runID uuid.UUID) ([]LogEntry, error) {
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM research_logs
		WHERE run_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func (s *Service) runWorker(runID uuid.UUID, query string) {
	ctx := context.Background()

	_, _ = s.DB.Pool.Exec(ctx, "UPDATE research_runs SET status = 'running', updated_at = NOW() WHERE id = $1", runID)

	// Pipeline logs for this run go to the database.
	dbLogger := slog.New(NewDBLogHandler(s.DB, runID))

	cfg := s.Cfg
	cfg.Logger = dbLogger
	orch := research.NewOrchestrator(s.Chatter, s.Provider, s.Loader, s.Indexer, cfg)

	orch.OnStateChange = func(node string, state research.ResearchState) {
		stateJSON, err := json.Marshal(state)
		if err != nil {
			dbLogger.Error("failed to marshal state", "error", err)
			return
		}
		_, err = s.DB.Pool.Exec(context.Background(),
			"UPDATE research_runs SET state = $2, updated_at = NOW() WHERE id = $1",
			runID, stateJSON)
		if err != nil {
			dbLogger.Error("failed to save state", "node", node, "error", err)
		}
	}

	state := orch.RunState(ctx, query)

	stateJSON, _ := json.Marshal(state)
	_, err := s.DB.Pool.Exec(ctx,
		"UPDATE research_runs SET status = $2, report = $3, error = NULLIF($4, ''), state = $5, updated_at = NOW() WHERE id = $1",
		runID, string(state.Status), state.FinalReport, state.Error, stateJSON)
	if err != nil {
		dbLogger.Error("failed to save final run state", "error", err)
	}
}
