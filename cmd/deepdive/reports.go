package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/rahul/deepdive/internal/store"
	"github.com/spf13/cobra"
)

func reportsCMD(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Browse archived research reports",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := openArchive(opts)
			if err != nil {
				return err
			}
			defer archive.Close()

			reports, err := archive.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reports archived yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tTOPIC\tFILE")
			for _, r := range reports {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Topic, r.Path)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "number of reports to show")

	var asJSON bool
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived report (id prefix accepted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := openArchive(opts)
			if err != nil {
				return err
			}
			defer archive.Close()

			r, err := archive.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Research Report: %s\nObjective: %s\nGenerated: %s\n\n%s\n", r.Topic, r.Objective, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Body)
			return nil
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	cmd.AddCommand(list, show)
	return cmd
}

func openArchive(opts *globalOptions) (*store.Archive, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return store.NewArchive(cfg.Memory.Path)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
