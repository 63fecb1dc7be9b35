package agent

import (
	"context"
	"sync"
	"time"

	"github.com/rahul/deepdive/internal/llm"
	"github.com/rahul/deepdive/internal/observability"
	"github.com/rahul/deepdive/internal/tools"
)

type llmCall struct {
	prompt      string
	user        string
	temperature float64
	maxTokens   int
}

// scriptedLLM answers by prompt name; prompts without a script get "<name> output".
type scriptedLLM struct {
	mu      sync.Mutex
	replies map[string]llm.Completion
	calls   []llmCall
	onCall  func(name string)
}

func newScriptedLLM() *scriptedLLM {
	return &scriptedLLM{replies: make(map[string]llm.Completion)}
}

func (s *scriptedLLM) reply(name, text string) *scriptedLLM {
	s.replies[name] = llm.Completion{Text: text}
	return s
}

func (s *scriptedLLM) fail(name string, err error) *scriptedLLM {
	s.replies[name] = llm.Completion{Err: err}
	return s
}

func (s *scriptedLLM) Complete(ctx context.Context, messages []llm.Message, temperature float64, maxTokens int) llm.Completion {
	name := promptName(messages[0].Content)
	s.mu.Lock()
	s.calls = append(s.calls, llmCall{prompt: name, user: messages[len(messages)-1].Content, temperature: temperature, maxTokens: maxTokens})
	onCall := s.onCall
	s.mu.Unlock()
	if onCall != nil {
		onCall(name)
	}
	if c, ok := s.replies[name]; ok {
		return c
	}
	return llm.Completion{Text: name + " output"}
}

func (s *scriptedLLM) callsFor(name string) []llmCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []llmCall
	for _, c := range s.calls {
		if c.prompt == name {
			out = append(out, c)
		}
	}
	return out
}

func promptName(system string) string {
	for name, body := range defaultPrompts {
		if system == body {
			return name
		}
	}
	return "unknown"
}

type recorder struct {
	mu     sync.Mutex
	events []observability.Event
}

func (r *recorder) Log(evt observability.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) ofType(t observability.EventType) []observability.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []observability.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeSearch struct {
	mu      sync.Mutex
	results []tools.SearchResult
	queries []string
}

func (f *fakeSearch) Search(ctx context.Context, query string, n int) []tools.SearchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.results
}

type fakeFetch struct {
	mu   sync.Mutex
	urls []string
}

func (f *fakeFetch) FetchText(ctx context.Context, url string) tools.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return tools.Outcome{Text: "content of " + url}
}

type fakeDocs struct {
	paths []string
}

func (f *fakeDocs) ExtractText(path string) tools.Outcome {
	f.paths = append(f.paths, path)
	return tools.Outcome{Text: "text of " + path}
}

type memoryWriter struct {
	topic, body string
	err         error
}

func (m *memoryWriter) WriteReport(topic, body string, at time.Time) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.topic, m.body = topic, body
	return "/reports/" + at.Format("20060102_150405") + ".txt", nil
}

type stepFunc func(ctx context.Context, plan *Plan, step *Step) (string, error)

func (f stepFunc) Execute(ctx context.Context, plan *Plan, step *Step) (string, error) {
	return f(ctx, plan, step)
}

func newTestExecutor(model Completer, search *fakeSearch, fetch *fakeFetch) *Executor {
	return &Executor{
		LLM:     model,
		Search:  search,
		Fetch:   fetch,
		Prompts: NewPromptManager(""),
	}
}
