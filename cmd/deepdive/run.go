package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rahul/deepdive/internal/agent"
	"github.com/rahul/deepdive/internal/observability"
	"github.com/spf13/cobra"
)

type runFlags struct {
	topic     string
	objective string
	output    string
	docs      []string
	json      bool
	dashboard bool
}

func (f *runFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.topic, "topic", "t", "", "research topic")
	cmd.Flags().StringVarP(&f.objective, "objective", "o", "", "research objective (default: a comprehensive overview of the topic)")
}

// resolve fills topic and objective from positional arguments when the flags
// are not set.
func (f *runFlags) resolve(args []string) error {
	if f.topic == "" && len(args) > 0 {
		f.topic = args[0]
		args = args[1:]
	}
	if f.objective == "" && len(args) > 0 {
		f.objective = strings.Join(args, " ")
	}
	f.topic = strings.TrimSpace(f.topic)
	if f.topic == "" {
		return errors.New("a research topic is required")
	}
	if strings.TrimSpace(f.objective) == "" {
		f.objective = fmt.Sprintf("Provide a comprehensive overview of %s", f.topic)
	}
	return nil
}

func runCMD(opts *globalOptions) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [topic] [objective]",
		Short: "Conduct a complete research run and write the report",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.resolve(args); err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if f.output != "" {
				cfg.App.OutputDir = f.output
			}
			cfg.Documents.Paths = append(cfg.Documents.Paths, f.docs...)

			out := io.Writer(os.Stdout)
			if f.dashboard && !f.json && observability.IsTerminal() {
				observability.InitializeTerminal()
				defer observability.CleanupTerminal()
				log.SetOutput(observability.NewTermWriter())
				out = observability.NewStdoutWriter()
			} else if !f.json {
				observability.PrintBanner()
			}

			var observer observability.Observer
			if f.json {
				observer = observability.NewLogger(os.Stdout, cfg.App.LogDir)
			} else {
				observer = observability.Fanout{
					observability.NewConsole(out),
					observability.NewLogger(nil, cfg.App.LogDir),
				}
			}

			o, cleanup, err := buildOrchestrator(cfg, observer)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if f.dashboard && !f.json {
				go func() {
					ticker := time.NewTicker(1 * time.Second)
					defer ticker.Stop()
					for {
						select {
						case <-ctx.Done():
							return
						case <-ticker.C:
							observability.PrintLiveStatus()
						}
					}
				}()
			}

			res, err := o.Run(ctx, f.topic, f.objective)
			if errors.Is(err, agent.ErrInterrupted) {
				fmt.Fprintln(out, "\n🛑 Research interrupted by user")
				return err
			}
			if res == nil || res.Report == nil {
				return err
			}
			if f.json {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"type":   "result",
					"run_id": res.RunID,
					"path":   res.Report.Path,
					"saved":  err == nil,
					"report": res.Report.Body,
				})
			}

			fmt.Fprintf(out, "\n%s\nFINAL REPORT\n%s\n%s\n", strings.Repeat("=", 80), strings.Repeat("=", 80), res.Report.Body)
			if errors.Is(err, agent.ErrReportNotSaved) {
				fmt.Fprintln(out, "\n⚠️  Report generated but not saved")
			}
			return err
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&f.output, "output", "", "directory for the report file (overrides app.output_dir)")
	cmd.Flags().StringSliceVar(&f.docs, "doc", nil, "PDF document to use for pdf_reader steps (repeatable)")
	cmd.Flags().BoolVar(&f.json, "json", false, "emit structured JSON events instead of console narration")
	cmd.Flags().BoolVar(&f.dashboard, "dashboard", false, "show the live status line")
	return cmd
}

func planCMD(opts *globalOptions) *cobra.Command {
	f := &runFlags{}
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "plan [topic] [objective]",
		Short: "Build and print a research plan without executing it",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.resolve(args); err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			o, cleanup, err := buildOrchestrator(cfg, observability.NewLogger(nil, cfg.App.LogDir))
			if err != nil {
				return err
			}
			defer cleanup()

			plan := o.Plan(cmd.Context(), f.topic, f.objective)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(plan)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "📝 Research plan for: %s\n📋 Objective: %s\n", plan.Topic, plan.Objective)
			if plan.Fallback {
				fmt.Fprintln(w, "(model plan unusable, default plan shown)")
			}
			for _, s := range plan.Steps {
				tags := "analysis"
				if len(s.Tools) > 0 {
					tags = strings.Join(s.Tools.Strings(), ", ")
				}
				fmt.Fprintf(w, "  %d. %s [%s]\n", s.ID, s.Description, tags)
			}
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	return cmd
}
