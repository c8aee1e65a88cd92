package research

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mikeboe/research-orchestrator/pkg/llm"
)

const reportSystemPrompt = `You are an expert research report writer. Your task is to create a comprehensive, well-structured research report in markdown format.

The report MUST include the following sections in this exact order:
1. Introduction
2. Background
3. Key Findings
4. Trends
5. Challenges
6. Conclusion
7. References

Requirements:
- Write in a professional, academic style
- Use proper markdown formatting (headers, lists, emphasis)
- Be thorough but concise
- Base all content on the provided insights and summary
- For the References section, use the exact markdown format provided
- Do NOT invent facts not supported by the provided information`

// defaultReportName is used when the sanitized query is empty.
const defaultReportName = "research_report"

// maxReportNameLength caps sanitized report filenames.
const maxReportNameLength = 200

var (
	illegalFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRuns       = regexp.MustCompile(`\s+`)
)

// ReportStage assembles the final markdown report from everything the
// previous stages produced and persists it under the output directory.
// Persistence failures are logged and swallowed.
type ReportStage struct {
	llm       llm.Chatter
	outputDir string
	logger    *slog.Logger
}

func NewReportStage(chatter llm.Chatter, outputDir string, logger *slog.Logger) *ReportStage {
	if logger == nil {
		logger = slog.Default()
	}
	if outputDir == "" {
		outputDir = "output"
	}
	return &ReportStage{llm: chatter, outputDir: outputDir, logger: logger}
}

func (r *ReportStage) Execute(ctx context.Context, state *ResearchState) {
	state.FinalReport = r.generateReport(ctx, state)
	r.logger.Info("reporter: final report generated", "length", len(state.FinalReport))
	r.saveReport(state)
}

func (r *ReportStage) generateReport(ctx context.Context, state *ResearchState) string {
	insightsText := renderInsights(state.ExtractedInsights)
	referencesText := renderReferences(state.SearchResults)
	topicsText := renderBullets(state.ResearchTopics)
	queriesText := renderBullets(state.SearchQueries)

	summary := state.Summary
	if summary == "" {
		summary = "No summary available."
	}

	userContent := fmt.Sprintf(`Research Query: %s

Research Topics Identified:
%s

Search Queries Used:
%s

Extracted Insights:
%s

Summary:
%s

References (use exactly as provided):
%s

Please generate a complete research report following the required structure.
The report should be comprehensive, well-written, and based entirely on the
information provided above.`,
		state.UserQuery, topicsText, queriesText, insightsText, summary, referencesText)

	report, err := r.llm.Chat(ctx, reportSystemPrompt, []llm.Message{
		{Role: "user", Content: userContent},
	})
	if err != nil {
		r.logger.Warn("reporter: model call failed, assembling fallback report", "error", err)
		return fallbackReport(state, insightsText, referencesText)
	}
	report = strings.TrimSpace(report)
	if report == "" {
		return fallbackReport(state, insightsText, referencesText)
	}

	// Make sure the report opens with a title heading.
	if !strings.HasPrefix(report, "#") {
		report = "# Research Report\n\n" + report
	}
	return report
}

// fallbackReport builds a deterministic report from the pipeline inputs so
// a completed run always carries a non-empty final report even when the
// model is unreachable.
func fallbackReport(state *ResearchState, insightsText, referencesText string) string {
	summary := state.Summary
	if summary == "" {
		summary = "No summary available."
	}
	var b strings.Builder
	b.WriteString("# Research Report\n\n")
	b.WriteString(fmt.Sprintf("## Introduction\n\nThis report addresses the research query: %s\n\n", state.UserQuery))
	b.WriteString(fmt.Sprintf("## Background\n\nResearch topics identified:\n%s\n\n", renderBullets(state.ResearchTopics)))
	b.WriteString(fmt.Sprintf("## Key Findings\n\n%s\n\n", insightsText))
	b.WriteString(fmt.Sprintf("## Trends\n\n%s\n\n", summary))
	b.WriteString("## Challenges\n\nNo additional challenges were identified beyond the findings above.\n\n")
	b.WriteString(fmt.Sprintf("## Conclusion\n\n%s\n\n", summary))
	b.WriteString(fmt.Sprintf("## References\n\n%s\n", referencesText))
	return b.String()
}

func renderInsights(insights []Insight) string {
	if len(insights) == 0 {
		return "No insights were extracted from the available sources."
	}
	lines := make([]string, 0, len(insights))
	for idx, insight := range insights {
		line := fmt.Sprintf("%d. **Finding:** %s", idx+1, insight.Finding)
		if insight.Evidence != "" {
			line += fmt.Sprintf("\n   **Evidence:** %s", insight.Evidence)
		}
		if insight.Source != "" {
			line += fmt.Sprintf("\n   **Source:** %s", insight.Source)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n\n")
}

// renderReferences de-duplicates (title, url) pairs from the search
// results, preserving first-seen order.
func renderReferences(results []SearchResult) string {
	if len(results) == 0 {
		return "- No references available."
	}
	type refKey struct{ title, url string }
	seen := make(map[refKey]bool)
	var lines []string
	for _, item := range results {
		title := item.Title
		if title == "" {
			title = "Untitled Source"
		}
		key := refKey{title: title, url: item.URL}
		if seen[key] {
			continue
		}
		seen[key] = true
		if item.URL != "" {
			lines = append(lines, fmt.Sprintf("- [%s](%s)", title, item.URL))
		} else {
			lines = append(lines, fmt.Sprintf("- %s", title))
		}
	}
	return strings.Join(lines, "\n")
}

func renderBullets(items []string) string {
	if len(items) == 0 {
		return "N/A"
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s", item))
	}
	return strings.Join(lines, "\n")
}

func (r *ReportStage) saveReport(state *ResearchState) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		r.logger.Warn("reporter: failed to create output directory", "dir", r.outputDir, "error", err)
		return
	}
	filename := sanitizeFilename(state.UserQuery) + ".md"
	path := filepath.Join(r.outputDir, filename)
	if err := os.WriteFile(path, []byte(state.FinalReport), 0644); err != nil {
		r.logger.Warn("reporter: failed to save markdown report", "path", path, "error", err)
		return
	}
	r.logger.Info("reporter: markdown report saved", "path", path)
}

// sanitizeFilename strips characters that are illegal in filenames,
// collapses whitespace, trims surrounding spaces and dots, and caps the
// length. The transformation is idempotent.
func sanitizeFilename(name string) string {
	name = illegalFilenameChars.ReplaceAllString(name, "")
	name = whitespaceRuns.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .")
	if runes := []rune(name); len(runes) > maxReportNameLength {
		name = string(runes[:maxReportNameLength])
		// When the cut lands on a space or dot the result comes up short
		// of the cap; re-trimming keeps the function idempotent.
		name = strings.TrimRight(name, " .")
	}
	if name == "" {
		name = defaultReportName
	}
	return name
}
