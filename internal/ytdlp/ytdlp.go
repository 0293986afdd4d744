// Package ytdlp translates download requests into yt-dlp invocations. The
// yt-dlp tool itself lives inside a pykit-managed environment; this package
// only builds argument lists and runs the entry point.
package ytdlp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"pykit/internal/logging"
)

// Requirement pins the yt-dlp release installed into the environment.
const Requirement = "yt-dlp==2025.2.19"

// Options selects the output flavour of a download.
type Options struct {
	// AudioOnly extracts the best audio track as MP3 instead of video.
	AudioOnly bool
	// OutputDir receives the downloaded files.
	OutputDir string

	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// Args builds the yt-dlp argument list for a URL. The format strings mirror
// the download profiles the tool's own documentation recommends for MP3 and
// MP4 output.
func Args(url string, opts Options) []string {
	var args []string
	if opts.AudioOnly {
		args = append(args,
			"-f", "bestaudio[ext=mp4]/bestaudio[ext=m4a]/bestaudio",
			"--extract-audio",
			"--audio-format", "mp3",
			"--audio-quality", "0",
		)
	} else {
		args = append(args,
			"-f", "bestvideo+bestaudio[ext=mp4]/best[ext=mp4]/best",
		)
	}
	if opts.OutputDir != "" {
		args = append(args, "-o", filepath.Join(opts.OutputDir, "%(title)s.%(ext)s"))
	}
	return append(args, url)
}

// Run executes the environment's yt-dlp entry point for the URL, streaming
// tool output to the configured writers.
func Run(ctx context.Context, toolPath, url string, opts Options) error {
	logger := logging.NewComponentLogger(opts.Logger, "ytdlp")

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	args := Args(url, opts)
	logger.Info("downloading",
		logging.String("url", url),
		logging.Bool("audio_only", opts.AudioOnly),
	)

	cmd := exec.CommandContext(ctx, toolPath, args...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp %s: %w", strings.TrimSpace(url), err)
	}
	return nil
}
