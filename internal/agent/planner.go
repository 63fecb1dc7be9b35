package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/rahul/deepdive/internal/llm"
	"github.com/rahul/deepdive/internal/observability"
)

var planBlock = regexp.MustCompile(`(?s)\{.*\}`)

// planDoc is the JSON shape the planner prompt asks for.
type planDoc struct {
	Steps []stepDoc `json:"steps"`
}

type stepDoc struct {
	StepID      *int     `json:"step_id"`
	Description *string  `json:"description"`
	ToolsNeeded []string `json:"tools_needed"`
}

// Planner turns a topic and objective into an ordered research plan.
type Planner struct {
	LLM      Completer
	Prompts  *PromptManager
	Observer observability.Observer
	Now      func() time.Time
}

func NewPlanner(completer Completer, prompts *PromptManager, observer observability.Observer) *Planner {
	return &Planner{LLM: completer, Prompts: prompts, Observer: observer, Now: time.Now}
}

// Build asks the model for a plan and falls back to the default plan when the
// response cannot be used. It always returns a non-empty plan.
func (p *Planner) Build(ctx context.Context, topic, objective string) *Plan {
	now := p.now()
	plan := &Plan{Topic: topic, Objective: objective, CreatedAt: now, UpdatedAt: now}

	resp := p.LLM.Complete(ctx, []llm.Message{
		llm.System(p.Prompts.Get(PromptPlanner)),
		llm.User(fmt.Sprintf("Create a research plan for the topic: '%s' with the objective: '%s'", topic, objective)),
	}, 0.3, 0)

	steps, err := parsePlan(resp)
	if err != nil {
		log.Printf("[Planner] Error parsing plan: %v", err)
		steps = DefaultSteps()
		plan.Fallback = true
	}
	plan.Steps = steps

	if p.Observer != nil {
		p.Observer.Log(observability.Event{
			Type:      observability.EventTypePlan,
			RunID:     observability.RunIDFrom(ctx),
			Data:      plan.data(),
			Timestamp: now,
		})
	}
	return plan
}

func (p *Planner) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func parsePlan(resp llm.Completion) ([]*Step, error) {
	if resp.Failed() {
		return nil, resp.Err
	}
	block := planBlock.FindString(llm.StripThinking(resp.Text))
	if block == "" {
		return nil, errors.New("no JSON object in planner response")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(block)))
	var doc planDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if len(doc.Steps) == 0 {
		return nil, errors.New("plan has no steps")
	}

	seen := make(map[int]bool)
	steps := make([]*Step, 0, len(doc.Steps))
	for i, sd := range doc.Steps {
		if sd.StepID == nil || *sd.StepID <= 0 {
			return nil, fmt.Errorf("step %d: missing or invalid step_id", i+1)
		}
		if seen[*sd.StepID] {
			return nil, fmt.Errorf("duplicate step_id %d", *sd.StepID)
		}
		seen[*sd.StepID] = true
		if sd.Description == nil || strings.TrimSpace(*sd.Description) == "" {
			return nil, fmt.Errorf("step %d: missing description", *sd.StepID)
		}

		var tools []Tool
		for _, name := range sd.ToolsNeeded {
			if t, ok := ParseTool(name); ok {
				tools = append(tools, t)
			}
		}
		steps = append(steps, &Step{
			ID:          *sd.StepID,
			Description: strings.TrimSpace(*sd.Description),
			Status:      StatusPending,
			Tools:       NewToolSet(tools...),
		})
	}
	return steps, nil
}

// DefaultSteps is the plan used whenever the model's plan cannot be parsed.
func DefaultSteps() []*Step {
	web := func(id int, desc string) *Step {
		return &Step{ID: id, Description: desc, Status: StatusPending, Tools: NewToolSet(ToolWebSearch)}
	}
	return []*Step{
		web(1, "Define key concepts and terminology"),
		web(2, "Search for recent academic sources"),
		web(3, "Gather statistical data and facts"),
		web(4, "Find expert opinions and analysis"),
		web(5, "Identify controversies or debates"),
		{ID: 6, Description: "Synthesize findings", Status: StatusPending, Tools: NewToolSet()},
	}
}
