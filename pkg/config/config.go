package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoProvider is returned when no enabled LLM provider is configured.
var ErrNoProvider = errors.New("no enabled provider found in config")

type Config struct {
	App       AppConfig                 `yaml:"app"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	LLM       LLMConfig                 `yaml:"llm"`
	Research  ResearchConfig            `yaml:"research"`
	Search    SearchConfig              `yaml:"search"`
	Fetch     FetchConfig               `yaml:"fetch"`
	Documents DocumentsConfig           `yaml:"documents"`
	Memory    MemoryConfig              `yaml:"memory"`
	Notify    NotifyConfig              `yaml:"notify"`
}

type AppConfig struct {
	Name       string `yaml:"name"`
	OutputDir  string `yaml:"output_dir"`
	PromptsDir string `yaml:"prompts_dir"`
	LogDir     string `yaml:"log_dir"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

type LLMConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	MaxTokens       int           `yaml:"max_tokens"`
	ReportMaxTokens int           `yaml:"report_max_tokens"`
}

type ResearchConfig struct {
	ReflectionInterval     int           `yaml:"reflection_interval"`
	MaxQueries             int           `yaml:"max_queries"`
	SearchResults          int           `yaml:"search_results"`
	FetchLimit             int           `yaml:"fetch_limit"`
	ExcerptChars           int           `yaml:"excerpt_chars"`
	ReflectionExcerptChars int           `yaml:"reflection_excerpt_chars"`
	SearchPace             time.Duration `yaml:"search_pace"`
}

type SearchConfig struct {
	Provider  string `yaml:"provider"` // duckduckgo, duckduckgo_api
	UserAgent string `yaml:"user_agent"`
}

type FetchConfig struct {
	Renderer  string        `yaml:"renderer"` // http, chromedp
	Timeout   time.Duration `yaml:"timeout"`
	MaxChars  int           `yaml:"max_chars"`
	Deny      []string      `yaml:"deny"`
	DenyTools []string      `yaml:"deny_tools"` // fetch, pdf_reader
	Chrome    string        `yaml:"chrome_path"`
}

type DocumentsConfig struct {
	Paths    []string `yaml:"paths"`
	MaxChars int      `yaml:"max_chars"`
}

type MemoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type NotifyConfig struct {
	Telegram ChannelConfig `yaml:"telegram"`
	Discord  ChannelConfig `yaml:"discord"`
}

type ChannelConfig struct {
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
	Enabled bool   `yaml:"enabled"`
}

// Default returns a configuration that talks to a local LM Studio server.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:       "deepdive",
			OutputDir:  ".",
			PromptsDir: "./prompts",
			LogDir:     "logs",
		},
		Providers: map[string]ProviderConfig{
			"lmstudio": {
				APIKey:  "lm-studio",
				Model:   "local-model",
				BaseURL: "http://localhost:1234/v1",
				Enabled: true,
			},
		},
		LLM: LLMConfig{
			Timeout:         60 * time.Second,
			MaxTokens:       2000,
			ReportMaxTokens: 3000,
		},
		Research: ResearchConfig{
			ReflectionInterval:     3,
			MaxQueries:             3,
			SearchResults:          5,
			FetchLimit:             3,
			ExcerptChars:           1000,
			ReflectionExcerptChars: 200,
			SearchPace:             time.Second,
		},
		Search: SearchConfig{
			Provider:  "duckduckgo",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		Fetch: FetchConfig{
			Renderer: "http",
			Timeout:  10 * time.Second,
			MaxChars: 5000,
		},
		Documents: DocumentsConfig{
			MaxChars: 20000,
		},
		Memory: MemoryConfig{
			Enabled: true,
			Path:    "research.db",
		},
	}
}

// LoadConfig reads a YAML (or JSON) file over the defaults. A missing file is
// not an error; the defaults are returned with environment overrides applied.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets the default provider be pointed somewhere else without a file.
func (c *Config) applyEnv() {
	name, p := c.GetDefaultProvider()
	if name == "" {
		return
	}
	if v := os.Getenv("DEEPDIVE_API_KEY"); v != "" {
		p.APIKey = v
	}
	if v := os.Getenv("DEEPDIVE_BASE_URL"); v != "" {
		p.BaseURL = v
	}
	if v := os.Getenv("DEEPDIVE_MODEL"); v != "" {
		p.Model = v
	}
	c.Providers[name] = p
}

func (c *Config) Validate() error {
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be > 0")
	}
	if c.Research.ReflectionInterval <= 0 {
		return fmt.Errorf("research.reflection_interval must be > 0")
	}
	if c.Research.MaxQueries <= 0 || c.Research.SearchResults <= 0 {
		return fmt.Errorf("research.max_queries and research.search_results must be > 0")
	}
	if c.Fetch.MaxChars <= 0 {
		return fmt.Errorf("fetch.max_chars must be > 0")
	}
	switch c.Fetch.Renderer {
	case "http", "chromedp":
	default:
		return fmt.Errorf("fetch.renderer must be http or chromedp, got %q", c.Fetch.Renderer)
	}
	for _, name := range c.Fetch.DenyTools {
		switch name {
		case "fetch", "pdf_reader":
		default:
			return fmt.Errorf("fetch.deny_tools: unknown tool %q", name)
		}
	}
	switch c.Search.Provider {
	case "duckduckgo", "duckduckgo_api":
	default:
		return fmt.Errorf("search.provider must be duckduckgo or duckduckgo_api, got %q", c.Search.Provider)
	}
	return nil
}

// GetDefaultProvider returns the first enabled provider, in name order so the
// choice is stable across runs.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (ChannelConfig, bool) {
	tg := c.Notify.Telegram
	if tg.Enabled && tg.Token != "" && tg.ChatID != "" {
		return tg, true
	}
	return ChannelConfig{}, false
}

// GetDiscordConfig returns discord config if enabled
func (c *Config) GetDiscordConfig() (ChannelConfig, bool) {
	dc := c.Notify.Discord
	if dc.Enabled && dc.Token != "" && dc.ChatID != "" {
		return dc, true
	}
	return ChannelConfig{}, false
}
