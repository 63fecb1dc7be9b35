package agent

import (
	"strings"
	"time"

	"github.com/rahul/deepdive/internal/observability"
)

// Tool identifies the execution path a step takes.
type Tool string

const (
	ToolWebSearch Tool = "web_search"
	ToolPDFReader Tool = "pdf_reader"
)

// ParseTool maps a model-supplied tool name to a known Tool.
func ParseTool(name string) (Tool, bool) {
	switch Tool(strings.ToLower(strings.TrimSpace(name))) {
	case ToolWebSearch:
		return ToolWebSearch, true
	case ToolPDFReader:
		return ToolPDFReader, true
	}
	return "", false
}

// ToolSet is the deduplicated set of tools a step was planned with.
type ToolSet []Tool

func NewToolSet(tools ...Tool) ToolSet {
	set := ToolSet{}
	for _, t := range tools {
		if !set.Has(t) {
			set = append(set, t)
		}
	}
	return set
}

func (s ToolSet) Has(t Tool) bool {
	for _, x := range s {
		if x == t {
			return true
		}
	}
	return false
}

func (s ToolSet) Strings() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = string(t)
	}
	return out
}

// Status is the lifecycle state of a step within one run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Step represents a single sub-task in a research plan.
type Step struct {
	ID          int     `json:"step_id"`
	Description string  `json:"description"`
	Status      Status  `json:"status"`
	Result      string  `json:"result,omitempty"`
	Tools       ToolSet `json:"tools_used"`
}

func (s *Step) Info() observability.StepInfo {
	return observability.StepInfo{
		ID:          s.ID,
		Description: s.Description,
		Tools:       s.Tools.Strings(),
		Status:      string(s.Status),
		Result:      s.Result,
	}
}

// complete records the step's result and marks it completed.
func (s *Step) complete(result string) {
	s.Result = result
	s.Status = StatusCompleted
}

// Plan is the ordered set of steps for one research session. The slice order
// is the execution order.
type Plan struct {
	Topic     string    `json:"topic"`
	Objective string    `json:"objective"`
	Steps     []*Step   `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Fallback  bool      `json:"fallback"`
}

// Completed returns the completed steps with a non-empty result, in plan order.
func (p *Plan) Completed() []*Step {
	var out []*Step
	for _, s := range p.Steps {
		if s.Status == StatusCompleted && s.Result != "" {
			out = append(out, s)
		}
	}
	return out
}

func (p *Plan) data() observability.PlanData {
	steps := make([]observability.StepInfo, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = s.Info()
	}
	return observability.PlanData{
		Topic:     p.Topic,
		Objective: p.Objective,
		Steps:     steps,
		Fallback:  p.Fallback,
	}
}

// Findings maps a step id to the text it produced, one entry per attempted step.
type Findings map[int]string

// Report is the synthesized output of a run.
type Report struct {
	RunID       string    `json:"run_id"`
	Topic       string    `json:"topic"`
	Objective   string    `json:"objective"`
	Body        string    `json:"body"`
	Path        string    `json:"path,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
