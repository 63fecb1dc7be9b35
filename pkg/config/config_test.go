package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Research.ReflectionInterval != 3 {
		t.Errorf("Expected reflection interval 3, got %d", cfg.Research.ReflectionInterval)
	}
	if cfg.Fetch.MaxChars != 5000 {
		t.Errorf("Expected fetch max chars 5000, got %d", cfg.Fetch.MaxChars)
	}
	name, p := cfg.GetDefaultProvider()
	if name != "lmstudio" || p.BaseURL != "http://localhost:1234/v1" {
		t.Errorf("Unexpected default provider %s %+v", name, p)
	}
}

func TestLoadConfig_YAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  output_dir: reports
providers:
  lmstudio:
    enabled: false
  openai:
    api_key: sk-test
    model: gpt-4o-mini
    enabled: true
llm:
  timeout: 30s
research:
  reflection_interval: 2
  search_pace: 250ms
fetch:
  renderer: chromedp
  deny:
    - example\.org
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.App.OutputDir != "reports" {
		t.Errorf("Expected output dir reports, got %s", cfg.App.OutputDir)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.LLM.Timeout)
	}
	if cfg.Research.SearchPace != 250*time.Millisecond {
		t.Errorf("Expected 250ms pace, got %v", cfg.Research.SearchPace)
	}
	// untouched keys keep their defaults
	if cfg.Research.MaxQueries != 3 {
		t.Errorf("Expected max queries default 3, got %d", cfg.Research.MaxQueries)
	}
	name, p := cfg.GetDefaultProvider()
	if name != "openai" || p.Model != "gpt-4o-mini" {
		t.Errorf("Expected openai provider, got %s %+v", name, p)
	}
	if len(cfg.Fetch.Deny) != 1 {
		t.Errorf("Expected one deny rule, got %v", cfg.Fetch.Deny)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("DEEPDIVE_MODEL", "qwen3-8b")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	_, p := cfg.GetDefaultProvider()
	if p.Model != "qwen3-8b" {
		t.Errorf("Expected env model override, got %s", p.Model)
	}
}

func TestLoadConfig_InvalidRenderer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("fetch:\n  renderer: lynx\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation error for unknown renderer")
	}
}

func TestLoadConfig_DenyTools(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("fetch:\n  deny_tools: [pdf_reader]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Fetch.DenyTools) != 1 || cfg.Fetch.DenyTools[0] != "pdf_reader" {
		t.Errorf("Unexpected deny_tools %v", cfg.Fetch.DenyTools)
	}

	if err := os.WriteFile(path, []byte("fetch:\n  deny_tools: [shell]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected validation error for unknown tool")
	}
}

func TestNotifyConfigRequiresTokenAndChat(t *testing.T) {
	cfg := Default()
	cfg.Notify.Telegram = ChannelConfig{Token: "t", Enabled: true}
	if _, ok := cfg.GetTelegramConfig(); ok {
		t.Error("Telegram should be disabled without a chat id")
	}
	cfg.Notify.Telegram.ChatID = "42"
	if _, ok := cfg.GetTelegramConfig(); !ok {
		t.Error("Telegram should be enabled")
	}
}
