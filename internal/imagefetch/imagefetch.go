// Package imagefetch downloads image galleries with gallery-dl. The tool is
// installed into a pykit-managed environment and invoked through its entry
// point, so the host system never needs gallery-dl on PATH.
package imagefetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"

	"pykit/internal/logging"
	"pykit/internal/textutil"
)

// Requirement names the pip package installed into the environment.
const Requirement = "gallery-dl"

// Options controls a gallery fetch.
type Options struct {
	// BaseDir is the download root; each gallery lands in a per-URL
	// subdirectory under it.
	BaseDir string

	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// TargetDir returns the directory a gallery URL downloads into.
func TargetDir(baseDir, rawURL string) string {
	return filepath.Join(baseDir, "images", textutil.SafeDirNameFromURL(rawURL))
}

// ValidateURL rejects URLs gallery-dl cannot fetch.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url %q has no host", rawURL)
	}
	return nil
}

// Args builds the gallery-dl argument list for a URL.
func Args(rawURL, destDir string) []string {
	return []string{"--dest", destDir, rawURL}
}

// Fetch downloads every image gallery-dl finds at the URL into the per-URL
// target directory, streaming tool output to the configured writers.
func Fetch(ctx context.Context, toolPath, rawURL string, opts Options) (string, error) {
	logger := logging.NewComponentLogger(opts.Logger, "imagefetch")

	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}
	target := TargetDir(opts.BaseDir, rawURL)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create target directory: %w", err)
	}

	logger.Info("fetching gallery",
		logging.String("url", rawURL),
		logging.String("target", target),
	)

	cmd := exec.CommandContext(ctx, toolPath, Args(rawURL, target)...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		return target, fmt.Errorf("gallery-dl %s: %w", rawURL, err)
	}
	return target, nil
}
