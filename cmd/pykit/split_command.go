package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pykit/internal/config"
	"pykit/internal/history"
	"pykit/internal/mediasplit"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var chunkMiB int
	var extractAudio bool
	var outputDir string

	cmd := &cobra.Command{
		Use:   "split <file>",
		Short: "Split a media file into size-bounded chunks",
		Long: `Split a media file into chunks that stay under a size limit, suitable for
services with attachment caps. Chunks are cut on keyframe-preserving stream
copies, so no re-encode happens. With --extract-audio an MP3 of the audio
track is written alongside the chunks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			if _, err := os.Stat(input); err != nil {
				return fmt.Errorf("input %s: %w", args[0], err)
			}

			dest := outputDir
			if dest == "" {
				stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
				dest = filepath.Join(cfg.Paths.DownloadDir, "split", stem)
			} else if dest, err = config.ExpandPath(dest); err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}

			result, err := mediasplit.Split(cmd.Context(), input, mediasplit.Options{
				ChunkMiB:     chunkMiB,
				ExtractAudio: extractAudio,
				OutputDir:    dest,
				Logger:       ctx.log(),
			})
			if err != nil {
				ctx.recordRun(cmd.Context(), "split", input, dest, history.StatusFailed, err.Error())
				return err
			}

			ctx.recordRun(cmd.Context(), "split", input, dest, history.StatusOK,
				formatCount(len(result.Chunks), "chunk"))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s to %s\n", formatCount(len(result.Chunks), "chunk"), dest)
			if result.AudioPath != "" {
				fmt.Fprintf(out, "Extracted audio to %s\n", result.AudioPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkMiB, "chunk-mb", mediasplit.DefaultChunkMiB, "Maximum chunk size in MiB")
	cmd.Flags().BoolVar(&extractAudio, "extract-audio", false, "Also write an MP3 of the audio track")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: under the download directory)")
	return cmd
}
