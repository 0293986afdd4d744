package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pykit/internal/deps"
	"pykit/internal/docmirror"
	"pykit/internal/history"
)

func newDocsCommand(ctx *commandContext) *cobra.Command {
	var wgetBinary string

	cmd := &cobra.Command{
		Use:   "docs <url>",
		Short: "Mirror a documentation site for offline reading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rawURL := args[0]
			if err := docmirror.ValidateURL(rawURL); err != nil {
				return err
			}

			statuses := deps.CheckBinaries([]deps.Requirement{
				{Name: "wget", Command: wgetBinary, Description: "mirrors documentation sites"},
			})
			if len(statuses) > 0 && !statuses[0].Available {
				return fmt.Errorf("%s", statuses[0].Detail)
			}

			target, err := docmirror.Mirror(cmd.Context(), rawURL, docmirror.Options{
				Binary:  wgetBinary,
				BaseDir: cfg.Paths.DownloadDir,
				Logger:  ctx.log(),
			})
			if err != nil {
				ctx.recordRun(cmd.Context(), "docs", rawURL, target, history.StatusFailed, err.Error())
				return err
			}

			ctx.recordRun(cmd.Context(), "docs", rawURL, target, history.StatusOK, "")
			fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %s into %s\n", rawURL, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&wgetBinary, "wget", "wget", "wget executable to use")
	return cmd
}
