package agent

import (
	"context"
	"time"

	"github.com/rahul/deepdive/internal/llm"
	"github.com/rahul/deepdive/internal/tools"
)

// Completer is the language-model completion capability.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, temperature float64, maxTokens int) llm.Completion
}

// Searcher runs a web search. Failures come back as a result with Source "error".
type Searcher interface {
	Search(ctx context.Context, query string, numResults int) []tools.SearchResult
}

// Fetcher returns a bounded amount of readable text from a page.
type Fetcher interface {
	FetchText(ctx context.Context, url string) tools.Outcome
}

// DocumentReader extracts text from a local document.
type DocumentReader interface {
	ExtractText(path string) tools.Outcome
}

// ReportWriter persists a finished report and returns where it was written.
type ReportWriter interface {
	WriteReport(topic, body string, at time.Time) (string, error)
}

// Publisher receives a finished report after it has been written.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, report Report) error
}

// StepExecutor runs one step of a plan.
type StepExecutor interface {
	Execute(ctx context.Context, plan *Plan, step *Step) (string, error)
}
