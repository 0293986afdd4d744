package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pykit/internal/history"
	"pykit/internal/imagefetch"
)

// galleryEnvName is the shared environment holding the gallery-dl tool.
const galleryEnvName = "tool-gallery-dl"

func newImagesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images <url>",
		Short: "Download every image gallery found at a URL",
		Long: `Download image galleries with gallery-dl.

The gallery-dl tool is installed into a dedicated pykit environment on first
use, so the host Python installation stays untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rawURL := args[0]
			if err := imagefetch.ValidateURL(rawURL); err != nil {
				return err
			}

			manager, err := ctx.envManager()
			if err != nil {
				return err
			}
			handle, err := manager.Setup(cmd.Context(), galleryEnvName, []string{imagefetch.Requirement})
			if err != nil {
				return err
			}

			target, err := imagefetch.Fetch(cmd.Context(), manager.ToolPath(handle, "gallery-dl"), rawURL, imagefetch.Options{
				BaseDir: cfg.Paths.DownloadDir,
				Stdout:  cmd.OutOrStdout(),
				Stderr:  cmd.ErrOrStderr(),
				Logger:  ctx.log(),
			})
			if err != nil {
				ctx.recordRun(cmd.Context(), "images", rawURL, target, history.StatusFailed, err.Error())
				return err
			}

			ctx.recordRun(cmd.Context(), "images", rawURL, target, history.StatusOK, "")
			fmt.Fprintf(cmd.OutOrStdout(), "Saved galleries from %s into %s\n", rawURL, target)
			return nil
		},
	}

	return cmd
}
