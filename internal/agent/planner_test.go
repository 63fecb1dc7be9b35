package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/rahul/deepdive/internal/observability"
)

func assertDefaultPlan(t *testing.T, plan *Plan) {
	t.Helper()
	if !plan.Fallback {
		t.Error("Expected plan to be marked as fallback")
	}
	if len(plan.Steps) != 6 {
		t.Fatalf("Expected 6 steps, got %d", len(plan.Steps))
	}
	for i, s := range plan.Steps {
		if s.ID != i+1 {
			t.Errorf("Step %d has id %d", i, s.ID)
		}
		if s.Status != StatusPending {
			t.Errorf("Step %d should be pending, got %s", s.ID, s.Status)
		}
		wantTools := 0
		if s.ID <= 5 {
			wantTools = 1
		}
		if len(s.Tools) != wantTools || (wantTools == 1 && !s.Tools.Has(ToolWebSearch)) {
			t.Errorf("Step %d has unexpected tools %v", s.ID, s.Tools)
		}
	}
	if plan.Steps[5].Description != "Synthesize findings" {
		t.Errorf("Unexpected last step: %q", plan.Steps[5].Description)
	}
}

func TestPlanner_FallbackWithoutJSON(t *testing.T) {
	responses := []string{
		"Sure! Here is my plan: first search, then summarize.",
		`{"steps": [{"step_id": 1, "description": "x"`,
		`{"steps": []}`,
		`{"steps": [{"step_id": "1", "description": "Search"}]}`,
		`{"steps": [{"step_id": 1, "description": "A"}, {"step_id": 1, "description": "B"}]}`,
		`{"steps": [{"step_id": 1, "description": "  "}]}`,
		`{"steps": [{"step_id": 1, "description": "A", "tools_needed": "web_search"}]}`,
	}
	for _, resp := range responses {
		model := newScriptedLLM().reply(PromptPlanner, resp)
		plan := NewPlanner(model, NewPromptManager(""), nil).Build(context.Background(), "Topic", "Objective")
		assertDefaultPlan(t, plan)
	}
}

func TestPlanner_FallbackOnCompletionFailure(t *testing.T) {
	model := newScriptedLLM().fail(PromptPlanner, errors.New("connection refused"))
	rec := &recorder{}
	plan := NewPlanner(model, NewPromptManager(""), rec).Build(context.Background(), "Topic", "Objective")
	assertDefaultPlan(t, plan)

	events := rec.ofType(observability.EventTypePlan)
	if len(events) != 1 {
		t.Fatalf("Expected one plan event, got %d", len(events))
	}
	if data := events[0].Data.(observability.PlanData); !data.Fallback || len(data.Steps) != 6 {
		t.Errorf("Unexpected plan event data: %+v", data)
	}
}

func TestPlanner_ParsesModelPlan(t *testing.T) {
	resp := "<think>The user wants {a plan}</think>Here you go:\n```json\n" + `{
  "steps": [
    {"step_id": 1, "description": "Survey the physics", "tools_needed": ["web_search", "Web_Search"]},
    {"step_id": 2, "description": "Read the attached papers", "tools_needed": ["pdf_reader", "calculator"]},
    {"step_id": 3, "description": "Compare explanations"}
  ]
}` + "\n```"
	model := newScriptedLLM().reply(PromptPlanner, resp)
	plan := NewPlanner(model, NewPromptManager(""), nil).Build(context.Background(), "Why is the sky blue?", "Explain it")

	if plan.Fallback {
		t.Fatal("Expected the model plan to be used")
	}
	if len(plan.Steps) != 3 {
		t.Fatalf("Expected 3 steps, got %d", len(plan.Steps))
	}
	if len(plan.Steps[0].Tools) != 1 || !plan.Steps[0].Tools.Has(ToolWebSearch) {
		t.Errorf("Expected deduplicated web_search, got %v", plan.Steps[0].Tools)
	}
	if len(plan.Steps[1].Tools) != 1 || !plan.Steps[1].Tools.Has(ToolPDFReader) {
		t.Errorf("Expected unknown tool dropped, got %v", plan.Steps[1].Tools)
	}
	if len(plan.Steps[2].Tools) != 0 {
		t.Errorf("Expected no tools, got %v", plan.Steps[2].Tools)
	}
	if plan.Topic != "Why is the sky blue?" || plan.Objective != "Explain it" {
		t.Errorf("Unexpected plan header: %q / %q", plan.Topic, plan.Objective)
	}

	calls := model.callsFor(PromptPlanner)
	if len(calls) != 1 || calls[0].temperature != 0.3 {
		t.Errorf("Expected one planner call at temperature 0.3, got %+v", calls)
	}
}
