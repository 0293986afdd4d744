package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pykit/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and directory access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cfg)

			if jsonOutput {
				type jsonResult struct {
					Name     string `json:"name"`
					Passed   bool   `json:"passed"`
					Optional bool   `json:"optional"`
					Detail   string `json:"detail,omitempty"`
				}
				checks := make([]jsonResult, 0, len(results))
				for _, r := range results {
					checks = append(checks, jsonResult{Name: r.Name, Passed: r.Passed, Optional: r.Optional, Detail: r.Detail})
				}
				return writeJSON(cmd, map[string]any{
					"checks": checks,
					"passed": preflight.AllPassed(results),
				})
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "missing"
					if r.Optional {
						status = "missing (optional)"
					}
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if !preflight.AllPassed(results) {
				return fmt.Errorf("required checks failed")
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable output")
	return cmd
}
