package agent

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rahul/deepdive/internal/governance"
	"github.com/rahul/deepdive/internal/llm"
	"github.com/rahul/deepdive/internal/observability"
	"github.com/rahul/deepdive/internal/tools"
)

// DocumentPlaceholder is recorded by document steps when no documents are configured.
const DocumentPlaceholder = "PDF analysis step - no document sources configured for this run"

const (
	queryTemperature    = 0.5
	searchTemperature   = 0.3
	documentTemperature = 0.3
	analysisTemperature = 0.4
)

// ExecutorConfig bounds the work a single step may do.
type ExecutorConfig struct {
	MaxQueries    int
	SearchResults int
	FetchLimit    int
	ExcerptChars  int
	Documents     []string
}

func (c ExecutorConfig) withDefaults() ExecutorConfig {
	if c.MaxQueries <= 0 {
		c.MaxQueries = 3
	}
	if c.SearchResults <= 0 {
		c.SearchResults = 5
	}
	if c.FetchLimit < 0 {
		c.FetchLimit = 0
	} else if c.FetchLimit == 0 {
		c.FetchLimit = 3
	}
	if c.ExcerptChars <= 0 {
		c.ExcerptChars = 1000
	}
	return c
}

// Executor runs one plan step along the path its tools select.
type Executor struct {
	LLM      Completer
	Search   Searcher
	Fetch    Fetcher
	Docs     DocumentReader
	Policy   governance.PolicyEngine
	Pacer    *tools.Pacer
	Prompts  *PromptManager
	Observer observability.Observer
	Config   ExecutorConfig
}

// Execute marks the step in progress, runs it and records its result. Tool and
// model failures end up as text in the result; the only error returned is the
// context's, when the run is cancelled mid-step.
func (e *Executor) Execute(ctx context.Context, plan *Plan, step *Step) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	step.Status = StatusInProgress
	e.observer().Log(observability.Event{
		Type:      observability.EventTypeStep,
		RunID:     observability.RunIDFrom(ctx),
		StepID:    step.ID,
		Data:      observability.StepData{Step: step.Info()},
		Timestamp: time.Now(),
	})

	var (
		result string
		err    error
	)
	switch {
	case step.Tools.Has(ToolWebSearch):
		result, err = e.webSearch(ctx, plan, step)
	case step.Tools.Has(ToolPDFReader):
		result, err = e.readDocuments(ctx, plan, step)
	default:
		result, err = e.analyze(ctx, plan, step)
	}
	if err != nil {
		return "", err
	}

	step.complete(result)
	plan.UpdatedAt = time.Now()
	return result, nil
}

func (e *Executor) webSearch(ctx context.Context, plan *Plan, step *Step) (string, error) {
	cfg := e.Config.withDefaults()
	runID := observability.RunIDFrom(ctx)

	queries := e.queries(ctx, plan, step, cfg.MaxQueries)
	var results []tools.SearchResult
	for _, q := range queries {
		if e.Pacer != nil {
			if err := e.Pacer.Wait(ctx); err != nil {
				return "", err
			}
		}
		observability.LogToolCall(e.observer(), runID, step.ID, string(ToolWebSearch), q)
		found := e.Search.Search(ctx, q, cfg.SearchResults)
		observability.LogToolResult(e.observer(), runID, step.ID, string(ToolWebSearch), summarizeResults(found))
		results = append(results, found...)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	samples, err := e.fetchSamples(ctx, step, results, cfg)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Research step: %s\n\nSearch results:\n", step.Description)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.URL != "" {
			fmt.Fprintf(&b, "   URL: %s\n", r.URL)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	if len(samples) > 0 {
		b.WriteString("\nFetched content:\n")
		b.WriteString(strings.Join(samples, "\n\n"))
	}

	resp := e.LLM.Complete(ctx, []llm.Message{
		llm.System(e.Prompts.Get(PromptSearchAnalysis)),
		llm.User(b.String()),
	}, searchTemperature, 0)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return resp.String(), nil
}

// queries asks the model for search queries and falls back to the topic plus
// the step description when none are usable.
func (e *Executor) queries(ctx context.Context, plan *Plan, step *Step, max int) []string {
	resp := e.LLM.Complete(ctx, []llm.Message{
		llm.System(e.Prompts.Get(PromptQueries)),
		llm.User(fmt.Sprintf("Research topic: %s\nStep: %s\nGenerate search queries:", plan.Topic, step.Description)),
	}, queryTemperature, 0)

	var queries []string
	if !resp.Failed() {
		queries = ParseQueries(resp.Text, max)
	}
	if len(queries) == 0 {
		if resp.Failed() {
			log.Printf("[Step %d] Query generation failed, using fallback: %v", step.ID, resp.Err)
		}
		queries = []string{strings.TrimSpace(plan.Topic + " " + step.Description)}
	}
	return queries
}

var queryPrefix = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s*`)

// ParseQueries splits a model response into at most max search queries,
// dropping blank lines, list markers and surrounding quotes.
func ParseQueries(text string, max int) []string {
	var out []string
	for _, line := range strings.Split(llm.StripThinking(text), "\n") {
		q := queryPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		q = strings.TrimSpace(strings.Trim(strings.TrimSpace(q), "\"'`"))
		if q == "" {
			continue
		}
		out = append(out, q)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func (e *Executor) fetchSamples(ctx context.Context, step *Step, results []tools.SearchResult, cfg ExecutorConfig) ([]string, error) {
	if e.Fetch == nil {
		return nil, nil
	}
	runID := observability.RunIDFrom(ctx)
	seen := make(map[string]bool)
	var samples []string
	for _, r := range results {
		if len(seen) >= cfg.FetchLimit {
			break
		}
		link := strings.TrimSpace(r.URL)
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true

		if reason, denied := e.denied(ctx, governance.ToolFetch, link); denied {
			log.Printf("[Step %d] Skipping %s: %s", step.ID, link, reason)
			observability.LogToolResult(e.observer(), runID, step.ID, governance.ToolFetch, "denied: "+reason)
			samples = append(samples, fmt.Sprintf("Source: %s\nURL: %s\nContent: Skipped by policy: %s", r.Title, link, reason))
			continue
		}

		observability.LogToolCall(e.observer(), runID, step.ID, governance.ToolFetch, link)
		page := e.Fetch.FetchText(ctx, link)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := tools.Truncate(page.String(), cfg.ExcerptChars)
		observability.LogToolResult(e.observer(), runID, step.ID, governance.ToolFetch, fmt.Sprintf("%d chars", len([]rune(text))))
		samples = append(samples, fmt.Sprintf("Source: %s\nURL: %s\nContent: %s...", r.Title, link, text))
	}
	return samples, nil
}

func (e *Executor) readDocuments(ctx context.Context, plan *Plan, step *Step) (string, error) {
	paths := e.Config.Documents
	if len(paths) == 0 || e.Docs == nil {
		return DocumentPlaceholder, nil
	}
	runID := observability.RunIDFrom(ctx)

	var excerpts []string
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if reason, denied := e.denied(ctx, governance.ToolPDFReader, path); denied {
			log.Printf("[Step %d] Skipping %s: %s", step.ID, path, reason)
			observability.LogToolResult(e.observer(), runID, step.ID, string(ToolPDFReader), "denied: "+reason)
			excerpts = append(excerpts, fmt.Sprintf("Document: %s\nSkipped by policy: %s", filepath.Base(path), reason))
			continue
		}
		observability.LogToolCall(e.observer(), runID, step.ID, string(ToolPDFReader), path)
		doc := e.Docs.ExtractText(path)
		if doc.Failed() {
			observability.LogToolResult(e.observer(), runID, step.ID, string(ToolPDFReader), doc.String())
		} else {
			observability.LogToolResult(e.observer(), runID, step.ID, string(ToolPDFReader), fmt.Sprintf("%d chars", len([]rune(doc.Text))))
		}
		excerpts = append(excerpts, fmt.Sprintf("Document: %s\n%s", filepath.Base(path), doc.String()))
	}

	resp := e.LLM.Complete(ctx, []llm.Message{
		llm.System(e.Prompts.Get(PromptDocumentAnalysis)),
		llm.User(fmt.Sprintf("Research topic: %s\nResearch step: %s\n\nDocuments:\n%s", plan.Topic, step.Description, strings.Join(excerpts, "\n\n"))),
	}, documentTemperature, 0)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if text := resp.String(); text != "" {
		return text, nil
	}
	return "No relevant content found in the configured documents", nil
}

func (e *Executor) analyze(ctx context.Context, plan *Plan, step *Step) (string, error) {
	var previous []string
	for _, s := range plan.Completed() {
		if s.ID == step.ID {
			continue
		}
		previous = append(previous, fmt.Sprintf("Step %d: %s", s.ID, s.Result))
	}

	resp := e.LLM.Complete(ctx, []llm.Message{
		llm.System(e.Prompts.Get(PromptSynthesis)),
		llm.User(fmt.Sprintf("Research objective: %s\nCurrent step: %s\n\nPrevious findings:\n%s", plan.Objective, step.Description, strings.Join(previous, "\n\n"))),
	}, analysisTemperature, 0)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return resp.String(), nil
}

// denied asks the policy about one tool call. Policy errors allow the call.
func (e *Executor) denied(ctx context.Context, tool, args string) (string, bool) {
	if e.Policy == nil {
		return "", false
	}
	decision, err := e.Policy.Evaluate(ctx, governance.Request{Tool: tool, Arguments: args, RunID: observability.RunIDFrom(ctx)})
	if err != nil || decision.Allowed() {
		return "", false
	}
	return decision.Reason, true
}

func (e *Executor) observer() observability.Observer {
	if e.Observer == nil {
		return observability.Nop{}
	}
	return e.Observer
}

func summarizeResults(results []tools.SearchResult) string {
	if len(results) == 1 && results[0].Source == tools.SourceError {
		return results[0].Snippet
	}
	return fmt.Sprintf("%d results", len(results))
}
