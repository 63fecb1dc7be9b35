package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// StepInfo is the observable view of a research step.
type StepInfo struct {
	ID          int      `json:"id"`
	Description string   `json:"description"`
	Tools       []string `json:"tools,omitempty"`
	Status      string   `json:"status"`
	Result      string   `json:"result,omitempty"`
}

// PlanData is carried by EventTypePlan.
type PlanData struct {
	Topic     string     `json:"topic"`
	Objective string     `json:"objective"`
	Steps     []StepInfo `json:"steps"`
	Fallback  bool       `json:"fallback"`
}

// StepData is carried by EventTypeStep.
type StepData struct {
	Step StepInfo `json:"step"`
}

// ReflectionData is carried by EventTypeReflection.
type ReflectionData struct {
	AfterStep int    `json:"after_step"`
	Text      string `json:"text"`
}

// ReportData is carried by EventTypeReport.
type ReportData struct {
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

// PublishData is carried by EventTypePublish.
type PublishData struct {
	Target string `json:"target"`
	Error  string `json:"error,omitempty"`
}

// Console narrates a research run for a human watching the terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Log(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch d := evt.Data.(type) {
	case PlanData:
		fmt.Fprintf(c.out, "🎯 Starting research on: %s\n", d.Topic)
		fmt.Fprintf(c.out, "📋 Objective: %s\n", d.Objective)
		note := ""
		if d.Fallback {
			note = " (default plan)"
		}
		fmt.Fprintf(c.out, "\n📝 Created research plan with %d steps%s:\n", len(d.Steps), note)
		for _, s := range d.Steps {
			fmt.Fprintf(c.out, "  %d. %s\n", s.ID, s.Description)
		}
	case StepData:
		switch d.Step.Status {
		case "in_progress":
			fmt.Fprintf(c.out, "\n🔍 Executing Step %d: %s\n", d.Step.ID, d.Step.Description)
		case "failed":
			fmt.Fprintf(c.out, "%s❌ Error in step %d: %s%s\n", colorRed, d.Step.ID, strings.TrimPrefix(d.Step.Result, "Failed: "), colorReset)
		case "completed":
			fmt.Fprintf(c.out, "  ✅ Step %d completed\n", d.Step.ID)
		}
	case ReflectionData:
		fmt.Fprintf(c.out, "\n🤔 Reflection:\n%s\n", d.Text)
	case ReportData:
		if d.Error != "" {
			fmt.Fprintf(c.out, "%s⚠️  Report generated but not saved: %s%s\n", colorRed, d.Error, colorReset)
		} else {
			fmt.Fprintf(c.out, "📄 Report saved: %s\n", d.Path)
		}
	case PublishData:
		if d.Error != "" {
			fmt.Fprintf(c.out, "⚠️  Delivery to %s failed: %s\n", d.Target, d.Error)
		} else {
			fmt.Fprintf(c.out, "📨 Report delivered to %s\n", d.Target)
		}
	case map[string]string:
		switch evt.Type {
		case EventTypeToolCall:
			switch d["tool"] {
			case "web_search":
				fmt.Fprintf(c.out, "  🔍 Searching: %s\n", d["args"])
			case "fetch":
				fmt.Fprintf(c.out, "  📄 Fetching: %s\n", d["args"])
			case "pdf_reader":
				fmt.Fprintf(c.out, "  📑 Reading: %s\n", d["args"])
			}
		}
	}
}
