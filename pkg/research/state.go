package research

// Status is the overall orchestration status of a pipeline run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// SearchResult is a single record returned by a search provider.
type SearchResult struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Content string `json:"content"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Insight is a structured finding extracted from one search result.
type Insight struct {
	Finding  string `json:"finding"`
	Evidence string `json:"evidence"`
	Source   string `json:"source"`
}

// ResearchState is the shared state threaded through the pipeline. One
// query produces one state instance; each stage fills in its own fields
// and never clears a previous stage's output.
type ResearchState struct {
	UserQuery string `json:"user_query"`

	// Planner output
	ResearchTopics []string `json:"research_topics"`
	SearchQueries  []string `json:"search_queries"`
	AnalysisSteps  []string `json:"analysis_steps"`

	// Downstream pipeline fields
	SearchResults     []SearchResult `json:"search_results"`
	ExtractedInsights []Insight      `json:"extracted_insights"`

	// Orchestration bookkeeping. SearchAttempts increments exactly once
	// per search stage invocation and drives the retry edge.
	SearchAttempts int    `json:"search_attempts"`
	Summary        string `json:"summary"`
	FinalReport    string `json:"final_report"`
	Status         Status `json:"status"`
	Error          string `json:"error,omitempty"`
}

// NewState creates the initial state for a pipeline run.
func NewState(query string) *ResearchState {
	return &ResearchState{
		UserQuery: query,
		Status:    StatusPending,
	}
}
