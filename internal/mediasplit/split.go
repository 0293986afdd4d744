// Package mediasplit drives ffmpeg to cut a media file into size-bounded
// chunks and to extract its audio track. The heavy lifting stays inside
// ffmpeg; this package only sizes the chunks and places the results.
package mediasplit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"pykit/internal/fileutil"
	"pykit/internal/logging"
	"pykit/internal/media/ffprobe"
)

// DefaultChunkMiB keeps chunks under common attachment size limits.
const DefaultChunkMiB = 9

// Options configures a split run.
type Options struct {
	// Binary is the ffmpeg executable; empty means "ffmpeg".
	Binary string
	// ProbeBinary is the ffprobe executable; empty means "ffprobe".
	ProbeBinary string
	// ChunkMiB bounds each chunk's size; 0 means DefaultChunkMiB.
	ChunkMiB int
	// ExtractAudio additionally writes an MP3 of the audio track.
	ExtractAudio bool
	// OutputDir receives the chunks; it is created when missing.
	OutputDir string

	Logger *slog.Logger
}

// Result lists the files a split run produced.
type Result struct {
	Chunks    []string
	AudioPath string
}

// Split cuts input into chunks no larger than the configured size and,
// optionally, extracts the audio track. Files land in Options.OutputDir.
func Split(ctx context.Context, input string, opts Options) (Result, error) {
	logger := logging.NewComponentLogger(opts.Logger, "mediasplit")

	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	chunkMiB := opts.ChunkMiB
	if chunkMiB <= 0 {
		chunkMiB = DefaultChunkMiB
	}
	if opts.OutputDir == "" {
		return Result{}, fmt.Errorf("split: output directory required")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("split: create output directory: %w", err)
	}

	probe, err := ffprobe.Inspect(ctx, opts.ProbeBinary, input)
	if err != nil {
		return Result{}, err
	}
	size := probe.SizeBytes()
	duration := probe.DurationSeconds()
	if size <= 0 || duration <= 0 {
		return Result{}, fmt.Errorf("split: %s has no usable size/duration metadata", input)
	}

	chunkBytes := int64(chunkMiB) * 1024 * 1024
	chunks := int(math.Ceil(float64(size) / float64(chunkBytes)))

	var result Result
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	ext := filepath.Ext(input)

	if chunks <= 1 {
		// Already under the limit; a single copy keeps the contract that
		// output always lives in OutputDir.
		dst := filepath.Join(opts.OutputDir, filepath.Base(input))
		if err := fileutil.CopyFile(input, dst); err != nil {
			return Result{}, fmt.Errorf("split: copy input: %w", err)
		}
		result.Chunks = []string{dst}
	} else {
		segmentSeconds := duration / float64(chunks)
		logger.Info("splitting media file",
			logging.String("input", input),
			logging.Int("chunks", chunks),
			logging.String("segment_seconds", fmt.Sprintf("%.2f", segmentSeconds)),
		)

		workDir, err := os.MkdirTemp(opts.OutputDir, ".split-*")
		if err != nil {
			return Result{}, fmt.Errorf("split: create work directory: %w", err)
		}
		defer os.RemoveAll(workDir)

		pattern := filepath.Join(workDir, fmt.Sprintf("%s_part_%%03d%s", stem, ext))
		args := []string{
			"-v", "error",
			"-i", input,
			"-c", "copy",
			"-map", "0",
			"-f", "segment",
			"-segment_time", fmt.Sprintf("%.3f", segmentSeconds),
			"-reset_timestamps", "1",
			pattern,
		}
		cmd := exec.CommandContext(ctx, binary, args...)
		if output, err := cmd.CombinedOutput(); err != nil {
			return Result{}, fmt.Errorf("split: ffmpeg segment: %w: %s", err, strings.TrimSpace(string(output)))
		}

		produced, err := filepath.Glob(filepath.Join(workDir, stem+"_part_*"+ext))
		if err != nil {
			return Result{}, fmt.Errorf("split: list chunks: %w", err)
		}
		if len(produced) == 0 {
			return Result{}, fmt.Errorf("split: ffmpeg produced no chunks for %s", input)
		}
		sort.Strings(produced)
		for _, chunk := range produced {
			dst := filepath.Join(opts.OutputDir, filepath.Base(chunk))
			if err := fileutil.MoveFile(chunk, dst); err != nil {
				return Result{}, fmt.Errorf("split: place chunk: %w", err)
			}
			result.Chunks = append(result.Chunks, dst)
		}
	}

	if opts.ExtractAudio {
		audioPath := filepath.Join(opts.OutputDir, stem+".mp3")
		args := []string{
			"-v", "error",
			"-i", input,
			"-vn",
			"-codec:a", "libmp3lame",
			"-q:a", "0",
			"-y",
			audioPath,
		}
		cmd := exec.CommandContext(ctx, binary, args...)
		if output, err := cmd.CombinedOutput(); err != nil {
			return Result{}, fmt.Errorf("split: extract audio: %w: %s", err, strings.TrimSpace(string(output)))
		}
		result.AudioPath = audioPath
	}

	return result, nil
}
