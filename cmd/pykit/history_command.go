package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pykit/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the run ledger",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var tool string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent tool runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), tool, limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				type jsonRecord struct {
					RunID      string `json:"run_id"`
					Tool       string `json:"tool"`
					Target     string `json:"target"`
					OutputPath string `json:"output_path,omitempty"`
					Status     string `json:"status"`
					Detail     string `json:"detail,omitempty"`
					CreatedAt  string `json:"created_at"`
				}
				runs := make([]jsonRecord, 0, len(records))
				for _, r := range records {
					runs = append(runs, jsonRecord{
						RunID:      r.RunID,
						Tool:       r.Tool,
						Target:     r.Target,
						OutputPath: r.OutputPath,
						Status:     r.Status,
						Detail:     r.Detail,
						CreatedAt:  r.CreatedAt.Format(time.RFC3339),
					})
				}
				return writeJSON(cmd, map[string]any{"runs": runs})
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No recorded runs")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
					r.Tool,
					r.Target,
					r.Status,
					r.Detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Tool", "Target", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&tool, "tool", "", "Only show runs of this tool")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable output")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete run records older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			retentionDays := days
			if retentionDays <= 0 {
				retentionDays = cfg.History.RetentionDays
			}
			if retentionDays <= 0 {
				return fmt.Errorf("retention window not configured; pass --days or set history.retention_days")
			}

			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Duration(retentionDays)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s older than %d days\n", formatCount(int(removed), "record"), retentionDays)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention window in days (default: from config)")
	return cmd
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled; set history.enabled = true in the config")
	}
	return history.Open(cfg)
}
