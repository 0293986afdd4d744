package mediasplit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pykit/internal/logging"
	"pykit/internal/testsupport"
)

// stubProbe reports a 27 MiB file lasting 300 seconds.
func stubProbe(t *testing.T, dir string) string {
	t.Helper()
	binary := filepath.Join(dir, "ffprobe")
	payload := `{"streams":[{"index":0,"codec_type":"video"}],"format":{"duration":"300","size":"28311552"}}`
	script := "#!/bin/sh\ncat <<'EOF'\n" + payload + "\nEOF\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	return binary
}

// stubFFmpeg materializes the files a segment run would produce. The output
// pattern is always the final argument.
func stubFFmpeg(t *testing.T, dir string, argLog string) string {
	t.Helper()
	binary := filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\n" +
		"echo \"$@\" >> \"" + argLog + "\"\n" +
		"for last; do :; done\n" +
		"case \"$last\" in\n" +
		"*.mp3) : > \"$last\" ;;\n" +
		"*) for i in 0 1 2; do : > \"$(printf \"$last\" \"$i\")\"; done ;;\n" +
		"esac\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	return binary
}

func TestSplitProducesChunksInOutputDir(t *testing.T) {
	work := t.TempDir()
	argLog := filepath.Join(work, "args.log")
	probe := stubProbe(t, work)
	ffmpeg := stubFFmpeg(t, work, argLog)

	input := filepath.Join(work, "video.mp4")
	testsupport.WriteFile(t, input, 64)
	outDir := filepath.Join(work, "out")

	result, err := Split(context.Background(), input, Options{
		Binary:      ffmpeg,
		ProbeBinary: probe,
		ChunkMiB:    9,
		OutputDir:   outDir,
		Logger:      logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(result.Chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %v", result.Chunks)
	}
	for _, chunk := range result.Chunks {
		if filepath.Dir(chunk) != outDir {
			t.Fatalf("chunk outside output dir: %s", chunk)
		}
		if _, err := os.Stat(chunk); err != nil {
			t.Fatalf("chunk missing: %v", err)
		}
	}

	// 27 MiB over 9 MiB chunks across 300s: 100s per segment.
	args, err := os.ReadFile(argLog)
	if err != nil {
		t.Fatalf("read arg log: %v", err)
	}
	if !strings.Contains(string(args), "-segment_time 100.000") {
		t.Fatalf("unexpected segment time in args: %s", args)
	}
}

func TestSplitSmallFileCopiesWhole(t *testing.T) {
	work := t.TempDir()
	argLog := filepath.Join(work, "args.log")
	ffmpeg := stubFFmpeg(t, work, argLog)

	probe := filepath.Join(work, "ffprobe")
	payload := `{"streams":[],"format":{"duration":"10","size":"1024"}}`
	if err := os.WriteFile(probe, []byte("#!/bin/sh\ncat <<'EOF'\n"+payload+"\nEOF\n"), 0o755); err != nil {
		t.Fatalf("write probe stub: %v", err)
	}

	input := filepath.Join(work, "clip.mp4")
	testsupport.WriteFile(t, input, 16)
	outDir := filepath.Join(work, "out")

	result, err := Split(context.Background(), input, Options{
		Binary:      ffmpeg,
		ProbeBinary: probe,
		OutputDir:   outDir,
		Logger:      logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(result.Chunks) != 1 || filepath.Base(result.Chunks[0]) != "clip.mp4" {
		t.Fatalf("expected whole-file copy, got %v", result.Chunks)
	}
	if _, err := os.Stat(argLog); !os.IsNotExist(err) {
		t.Fatal("ffmpeg should not run for files under the chunk size")
	}
}

func TestSplitExtractsAudio(t *testing.T) {
	work := t.TempDir()
	argLog := filepath.Join(work, "args.log")
	probe := stubProbe(t, work)
	ffmpeg := stubFFmpeg(t, work, argLog)

	input := filepath.Join(work, "video.mp4")
	testsupport.WriteFile(t, input, 64)
	outDir := filepath.Join(work, "out")

	result, err := Split(context.Background(), input, Options{
		Binary:       ffmpeg,
		ProbeBinary:  probe,
		ExtractAudio: true,
		OutputDir:    outDir,
		Logger:       logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if result.AudioPath == "" {
		t.Fatal("expected audio path")
	}
	if _, err := os.Stat(result.AudioPath); err != nil {
		t.Fatalf("audio file missing: %v", err)
	}
	if !strings.Contains(readAll(t, argLog), "libmp3lame") {
		t.Fatal("audio extraction args missing")
	}
}

func TestSplitFailsWithoutMetadata(t *testing.T) {
	work := t.TempDir()
	probe := filepath.Join(work, "ffprobe")
	if err := os.WriteFile(probe, []byte("#!/bin/sh\necho '{\"format\":{}}'\n"), 0o755); err != nil {
		t.Fatalf("write probe stub: %v", err)
	}

	_, err := Split(context.Background(), filepath.Join(work, "in.mp4"), Options{
		ProbeBinary: probe,
		OutputDir:   filepath.Join(work, "out"),
		Logger:      logging.NewNop(),
	})
	if err == nil || !strings.Contains(err.Error(), "metadata") {
		t.Fatalf("expected metadata error, got %v", err)
	}
}

func readAll(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(raw)
}
