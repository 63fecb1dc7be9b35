package main

import (
	"fmt"
	"log"

	"github.com/rahul/deepdive/internal/agent"
	"github.com/rahul/deepdive/internal/gateway"
	"github.com/rahul/deepdive/internal/governance"
	"github.com/rahul/deepdive/internal/llm"
	"github.com/rahul/deepdive/internal/observability"
	"github.com/rahul/deepdive/internal/store"
	"github.com/rahul/deepdive/internal/tools"
	"github.com/rahul/deepdive/pkg/config"
)

func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig(*opts.configPath)
	if err != nil {
		return nil, err
	}
	if name := *opts.provider; name != "" {
		p, ok := cfg.Providers[name]
		if !ok {
			return nil, fmt.Errorf("provider %q is not configured", name)
		}
		for n, other := range cfg.Providers {
			other.Enabled = n == name
			cfg.Providers[n] = other
		}
		p.Enabled = true
		cfg.Providers[name] = p
	}
	return cfg, nil
}

// buildOrchestrator wires the configured adapters into a research orchestrator.
// The returned cleanup releases the browser and the archive.
func buildOrchestrator(cfg *config.Config, observer observability.Observer) (*agent.Orchestrator, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		return nil, nil, config.ErrNoProvider
	}
	model, err := llm.NewModel(pName, pCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("provider %s: %w", pName, err)
	}
	client := llm.NewClient(model, pCfg.Model, cfg.LLM.Timeout, observer)
	client.MaxTokens = cfg.LLM.MaxTokens

	search, err := tools.NewSearchTool(cfg.Search.Provider, cfg.Search.UserAgent)
	if err != nil {
		return nil, nil, err
	}

	var source tools.PageSource
	if cfg.Fetch.Renderer == "chromedp" {
		browser := tools.NewBrowserSource(cfg.Search.UserAgent, cfg.Fetch.Timeout)
		browser.ExecPath = cfg.Fetch.Chrome
		closers = append(closers, browser.Close)
		source = browser
	} else {
		source = tools.NewHTTPSource(cfg.Search.UserAgent, cfg.Fetch.Timeout)
	}

	policy, err := governance.NewFetchPolicy(cfg.Fetch.Deny, cfg.Fetch.DenyTools)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	prompts := agent.NewPromptManager(cfg.App.PromptsDir)
	executor := &agent.Executor{
		LLM:      client,
		Search:   search,
		Fetch:    tools.NewScraperTool(source, cfg.Fetch.MaxChars),
		Docs:     tools.NewPDFTool(cfg.Documents.MaxChars),
		Policy:   policy,
		Pacer:    tools.NewPacer(cfg.Research.SearchPace),
		Prompts:  prompts,
		Observer: observer,
		Config: agent.ExecutorConfig{
			MaxQueries:    cfg.Research.MaxQueries,
			SearchResults: cfg.Research.SearchResults,
			FetchLimit:    cfg.Research.FetchLimit,
			ExcerptChars:  cfg.Research.ExcerptChars,
			Documents:     cfg.Documents.Paths,
		},
	}

	var publishers []agent.Publisher
	if cfg.Memory.Enabled {
		archive, err := store.NewArchive(cfg.Memory.Path)
		if err != nil {
			log.Printf("Warning: report archive disabled: %v", err)
		} else {
			closers = append(closers, func() { archive.Close() })
			publishers = append(publishers, archive)
		}
	}
	if tgCfg, ok := cfg.GetTelegramConfig(); ok {
		if n, err := gateway.NewTelegramNotifier(tgCfg); err != nil {
			log.Printf("Warning: Telegram delivery disabled: %v", err)
		} else {
			publishers = append(publishers, n)
		}
	}
	if dcCfg, ok := cfg.GetDiscordConfig(); ok {
		if n, err := gateway.NewDiscordNotifier(dcCfg); err != nil {
			log.Printf("Warning: Discord delivery disabled: %v", err)
		} else {
			publishers = append(publishers, n)
		}
	}

	o := &agent.Orchestrator{
		Planner:   agent.NewPlanner(client, prompts, observer),
		Executor:  executor,
		Reflector: &agent.Reflector{LLM: client, Prompts: prompts, Observer: observer, ExcerptChars: cfg.Research.ReflectionExcerptChars},
		Synthesizer: &agent.Synthesizer{
			LLM:       client,
			Prompts:   prompts,
			Writer:    store.NewFileWriter(cfg.App.OutputDir),
			Observer:  observer,
			MaxTokens: cfg.LLM.ReportMaxTokens,
		},
		Publishers:         publishers,
		Observer:           observer,
		ReflectionInterval: cfg.Research.ReflectionInterval,
	}
	return o, cleanup, nil
}
