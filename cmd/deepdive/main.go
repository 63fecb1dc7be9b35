package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rahul/deepdive/internal/agent"
	"github.com/spf13/cobra"
)

func main() {
	var configPath, provider string
	var root = &cobra.Command{
		Use:           "deepdive",
		Short:         "Autonomous research assistant: plan, search, reflect, report",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", getenv("DEEPDIVE_CONFIG", "config.yaml"), "config file (YAML or JSON)")
	root.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider from the config to use (default: first enabled)")

	opts := &globalOptions{configPath: &configPath, provider: &provider}
	root.AddCommand(runCMD(opts), planCMD(opts), reportsCMD(opts))

	if err := root.Execute(); err != nil {
		if errors.Is(err, agent.ErrInterrupted) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type globalOptions struct {
	configPath *string
	provider   *string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
