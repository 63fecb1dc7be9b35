package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunFlagsResolve(t *testing.T) {
	f := &runFlags{}
	if err := f.resolve([]string{"Why is the sky blue?", "Explain", "the physics"}); err != nil {
		t.Fatal(err)
	}
	if f.topic != "Why is the sky blue?" || f.objective != "Explain the physics" {
		t.Errorf("Unexpected topic/objective: %q / %q", f.topic, f.objective)
	}

	f = &runFlags{topic: "Quantum dots"}
	if err := f.resolve(nil); err != nil {
		t.Fatal(err)
	}
	if f.objective != "Provide a comprehensive overview of Quantum dots" {
		t.Errorf("Unexpected default objective %q", f.objective)
	}

	if err := (&runFlags{topic: "  "}).resolve(nil); err == nil {
		t.Error("Expected an error without a topic")
	}
}

func TestLoadConfigProviderOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
providers:
  lmstudio:
    model: local
    base_url: http://localhost:1234/v1
    enabled: true
  ollama:
    model: llama3
    base_url: http://localhost:11434
    enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	provider := "ollama"
	cfg, err := loadConfig(&globalOptions{configPath: &path, provider: &provider})
	if err != nil {
		t.Fatal(err)
	}
	if name, p := cfg.GetDefaultProvider(); name != "ollama" || p.Model != "llama3" {
		t.Errorf("Expected ollama to be selected, got %s %+v", name, p)
	}

	missing := "anthropic"
	if _, err := loadConfig(&globalOptions{configPath: &path, provider: &missing}); err == nil {
		t.Error("Expected an error for an unknown provider")
	}
}
