package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan       EventType = "plan"
	EventTypeStep       EventType = "step"
	EventTypeToolCall   EventType = "tool_call"
	EventTypeToolResult EventType = "tool_result"
	EventTypeReflection EventType = "reflection"
	EventTypeReport     EventType = "report"
	EventTypePublish    EventType = "publish"
	EventTypeLLM        EventType = "llm"
	EventTypeCost       EventType = "cost"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	StepID    int       `json:"step_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Observer receives progress events from the research core.
type Observer interface {
	Log(evt Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Log(Event) {}

// Fanout forwards each event to every observer in order.
type Fanout []Observer

func (f Fanout) Log(evt Event) {
	for _, o := range f {
		if o != nil {
			o.Log(evt)
		}
	}
}

// Logger handles structured logging.
type Logger struct {
	mu         sync.Mutex
	out        io.Writer
	llmLogPath string
	maxSize    int64
}

// NewLogger writes JSON events to out (nil discards them) and keeps a
// separate rotating llm.jsonl under logDir.
func NewLogger(out io.Writer, logDir string) *Logger {
	if out == nil {
		out = io.Discard
	}
	return &Logger{
		out:        out,
		llmLogPath: filepath.Join(logDir, "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		data = []byte(fmt.Sprintf("{\"error\": \"failed to marshal event: %v\"}", err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, string(data))

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

type runIDKey struct{}

// WithRunID tags ctx so adapters deep in a run can label their events.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom returns the run id stored by WithRunID, or "".
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Helper methods for common events

func LogLLM(o Observer, runID string, prompt any, response string) {
	o.Log(Event{
		Type:  EventTypeLLM,
		RunID: runID,
		Data: map[string]any{
			"prompt":   prompt,
			"response": response,
		},
	})
}

func LogCost(o Observer, runID string, promptTokens, completionTokens int, model string) {
	o.Log(Event{
		Type:  EventTypeCost,
		RunID: runID,
		Data: map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
			"model":             model,
		},
	})
}

func LogToolCall(o Observer, runID string, stepID int, tool, args string) {
	o.Log(Event{
		Type:   EventTypeToolCall,
		RunID:  runID,
		StepID: stepID,
		Data: map[string]string{
			"tool": tool,
			"args": args,
		},
	})
}

func LogToolResult(o Observer, runID string, stepID int, tool, summary string) {
	o.Log(Event{
		Type:   EventTypeToolResult,
		RunID:  runID,
		StepID: stepID,
		Data: map[string]string{
			"tool":   tool,
			"result": summary,
		},
	})
}
