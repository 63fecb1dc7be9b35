package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptManager_Defaults(t *testing.T) {
	pm := NewPromptManager("")
	for _, name := range []string{PromptPlanner, PromptQueries, PromptSearchAnalysis, PromptDocumentAnalysis, PromptSynthesis, PromptReflection, PromptReport} {
		if pm.Get(name) == "" {
			t.Errorf("Missing default prompt %s", name)
		}
	}
	if !strings.Contains(pm.Get(PromptPlanner), `"tools_needed"`) {
		t.Error("Planner prompt should describe the plan schema")
	}
}

func TestPromptManager_OverridesAndPreamble(t *testing.T) {
	tempDir := t.TempDir()

	files := map[string]string{
		"identity.md":   "Identity Content",
		"soul.md":       "Soul Content",
		"user.md":       "User Content",
		"reflection.md": "Custom Reflection",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	pm := NewPromptManager(tempDir)
	prompt := pm.Get(PromptReflection)

	for _, part := range []string{"Identity Content", "Soul Content", "User Content", "Custom Reflection"} {
		if !strings.Contains(prompt, part) {
			t.Errorf("Prompt missing expected part: %s", part)
		}
	}
	if strings.Contains(prompt, defaultPrompts[PromptReflection]) {
		t.Error("Override should replace the default reflection prompt")
	}

	// Verify order
	if strings.Index(prompt, "Identity Content") >= strings.Index(prompt, "Soul Content") {
		t.Error("Identity should be before Soul")
	}
	if strings.Index(prompt, "Soul Content") >= strings.Index(prompt, "User Content") {
		t.Error("Soul should be before User")
	}
	if strings.Index(prompt, "User Content") >= strings.Index(prompt, "Custom Reflection") {
		t.Error("Preamble should be before the prompt body")
	}

	if !strings.HasSuffix(pm.Get(PromptReport), defaultPrompts[PromptReport]) {
		t.Error("Prompts without an override should keep their default body")
	}
}
