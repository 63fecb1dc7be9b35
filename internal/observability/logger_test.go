package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_WritesJSONAndLLMFile(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	l := NewLogger(&out, dir)

	l.Log(Event{Type: EventTypeStep, RunID: "r1", StepID: 2, Data: StepData{Step: StepInfo{ID: 2, Status: "completed"}}})
	LogLLM(l, "r1", "prompt", "response")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 JSON lines, got %d: %q", len(lines), out.String())
	}
	var evt map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &evt); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if evt["type"] != "step" || evt["run_id"] != "r1" {
		t.Errorf("Unexpected event: %v", evt)
	}

	data, err := os.ReadFile(filepath.Join(dir, "llm.jsonl"))
	if err != nil {
		t.Fatalf("llm.jsonl not written: %v", err)
	}
	if !strings.Contains(string(data), "\"response\":\"response\"") {
		t.Errorf("llm.jsonl missing response: %s", data)
	}
}

func TestFanoutSkipsNil(t *testing.T) {
	var out bytes.Buffer
	f := Fanout{nil, NewConsole(&out)}
	f.Log(Event{Type: EventTypeReflection, Data: ReflectionData{AfterStep: 3, Text: "gaps remain"}})
	if !strings.Contains(out.String(), "gaps remain") {
		t.Errorf("Console did not narrate reflection: %q", out.String())
	}
}

func TestConsole_StepFailure(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out)
	c.Log(Event{Type: EventTypeStep, Data: StepData{Step: StepInfo{ID: 4, Status: "failed", Result: "Failed: boom"}}})
	if !strings.Contains(out.String(), "Error in step 4: boom") {
		t.Errorf("Unexpected narration: %q", out.String())
	}
}

func TestRunIDContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "abc")
	if RunIDFrom(ctx) != "abc" {
		t.Error("Run id not propagated")
	}
	if RunIDFrom(context.Background()) != "" {
		t.Error("Expected empty run id")
	}
}
