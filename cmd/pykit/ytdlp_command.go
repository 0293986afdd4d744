package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pykit/internal/config"
	"pykit/internal/history"
	"pykit/internal/ytdlp"
)

// ytdlpEnvName is the shared environment holding the pinned yt-dlp tool.
const ytdlpEnvName = "tool-yt-dlp"

func newYtdlpCommand(ctx *commandContext) *cobra.Command {
	var audioOnly bool
	var outputDir string

	cmd := &cobra.Command{
		Use:   "ytdlp <url>",
		Short: "Download a video (or its audio) with yt-dlp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rawURL := args[0]

			dest := outputDir
			if dest == "" {
				dest = cfg.Paths.DownloadDir
			} else if dest, err = config.ExpandPath(dest); err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}

			manager, err := ctx.envManager()
			if err != nil {
				return err
			}
			handle, err := manager.Setup(cmd.Context(), ytdlpEnvName, []string{ytdlp.Requirement})
			if err != nil {
				return err
			}

			err = ytdlp.Run(cmd.Context(), manager.ToolPath(handle, "yt-dlp"), rawURL, ytdlp.Options{
				AudioOnly: audioOnly,
				OutputDir: dest,
				Stdout:    cmd.OutOrStdout(),
				Stderr:    cmd.ErrOrStderr(),
				Logger:    ctx.log(),
			})
			if err != nil {
				ctx.recordRun(cmd.Context(), "ytdlp", rawURL, dest, history.StatusFailed, err.Error())
				return err
			}

			ctx.recordRun(cmd.Context(), "ytdlp", rawURL, dest, history.StatusOK, "")
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s into %s\n", rawURL, dest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&audioOnly, "audio", false, "Extract the best audio track as MP3")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: the download directory)")
	return cmd
}
