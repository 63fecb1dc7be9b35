package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rahul/deepdive/internal/llm"
	"github.com/rahul/deepdive/internal/observability"
	"github.com/rahul/deepdive/internal/tools"
)

// Reflector produces a progress assessment from the completed steps. It never
// changes the plan.
type Reflector struct {
	LLM          Completer
	Prompts      *PromptManager
	Observer     observability.Observer
	ExcerptChars int
}

func (r *Reflector) Reflect(ctx context.Context, plan *Plan, afterStep int) string {
	excerpt := r.ExcerptChars
	if excerpt <= 0 {
		excerpt = 200
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Research Topic: %s\nObjective: %s\n\nCompleted Steps:\n", plan.Topic, plan.Objective)
	for _, s := range plan.Steps {
		if s.Status != StatusCompleted {
			continue
		}
		fmt.Fprintf(&b, "Step %d: %s\nResult: %s...\n", s.ID, s.Description, tools.Truncate(s.Result, excerpt))
	}

	text := r.LLM.Complete(ctx, []llm.Message{
		llm.System(r.Prompts.Get(PromptReflection)),
		llm.User(b.String()),
	}, 0.6, 0).String()

	if r.Observer != nil {
		r.Observer.Log(observability.Event{
			Type:      observability.EventTypeReflection,
			RunID:     observability.RunIDFrom(ctx),
			StepID:    afterStep,
			Data:      observability.ReflectionData{AfterStep: afterStep, Text: text},
			Timestamp: time.Now(),
		})
	}
	return text
}
