package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/islandguide/internal/config"
)

func reloadCMD(getCfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Clear the index and re-ingest the documents directory",
		Long: "Clear the index and re-ingest the documents directory.\n" +
			"The rebuild is not atomic: questions asked while it runs may be refused.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(getCfg())
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.reload(cmd.Context())
			if err != nil {
				return fmt.Errorf("reload failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %d documents (%d chunks)\n", stats.Documents, stats.Chunks)
			for _, s := range stats.Skipped {
				fmt.Fprintf(out, "  skipped %s: %s\n", s.Path, s.Reason)
			}
			return nil
		},
	}
}

func askCMD(getCfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question the way the HTTP API does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question is required")
			}

			a, err := newApp(getCfg())
			if err != nil {
				return err
			}
			defer a.Close()

			a.bootstrap(cmd.Context())
			reply := a.router.Handle(cmd.Context(), question)
			fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			return nil
		},
	}
}

func statusCMD(getCfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the live ferry status report",
		RunE: func(cmd *cobra.Command, args []string) error {
			transitUC, err := newTransit(getCfg(), nil)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), transitUC.Report(cmd.Context()))
			return nil
		},
	}
}
