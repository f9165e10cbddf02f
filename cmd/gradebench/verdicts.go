package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/gradebench/internal/infra/ledger"
)

func (c *cli) newCollectCmd() *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "collect <dir>",
		Short: "Append the verdicts found in a response directory to the flat log",
		Long: `Reads every regular file directly inside <dir>, extracts the first
"VERDICT: <number>" of each and appends them as one batch to the flat log.
Files without a verdict are ignored. Nothing is written when no verdict is
found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			deps, err := newVerdictService(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer deps.Close()

			res, err := deps.svc.Collect(ctx, args[0], c.logPath(logPath))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !res.Appended {
				fmt.Fprintf(out, "No verdicts found in %s (%d files scanned)\n", res.Directory, res.Scanned)
				return nil
			}
			fmt.Fprintf(out, "Collected %d verdicts from %s into %s (%d scanned, %d skipped)\n",
				len(res.Records), res.Directory, c.logPath(logPath), res.Scanned, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "flat log path (default from config)")
	return cmd
}

func (c *cli) newGroupCmd() *cobra.Command {
	var logPath, reportPath string
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Rewrite the grouped report from the flat log",
		Long: `Reads the flat log, groups its records by <subject>_<id> found in the
file name and overwrites the report with one table per group, sorted by
subject and numeric id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			deps, err := newVerdictService(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer deps.Close()

			report := reportPath
			if report == "" {
				report = c.cfg.Analysis.ReportPath
			}
			res, err := deps.svc.Group(ctx, c.logPath(logPath), report)
			if err != nil {
				return err
			}
			if !res.Written {
				fmt.Fprintln(cmd.OutOrStdout(), "No data grouped")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d groups to %s\n", len(res.Groups), report)
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "flat log path (default from config)")
	cmd.Flags().StringVar(&reportPath, "report", "", "grouped report path (default from config)")
	return cmd
}

func (c *cli) newSummaryCmd() *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print verdict statistics per subject group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			deps, err := newVerdictService(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer deps.Close()

			sums, err := deps.svc.Summary(ctx, c.logPath(logPath))
			if err != nil {
				return err
			}
			return ledger.WriteSummaryTable(cmd.OutOrStdout(), sums)
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "flat log path (default from config)")
	return cmd
}

func (c *cli) logPath(flag string) string {
	if flag != "" {
		return flag
	}
	return c.cfg.Analysis.LogPath
}
