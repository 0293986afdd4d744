// Package docmirror wraps wget to mirror documentation sites into a
// per-URL directory under the shared download root.
package docmirror

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"pykit/internal/logging"
	"pykit/internal/textutil"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configures a mirror run.
type Options struct {
	// Binary is the wget executable; empty means "wget".
	Binary string
	// BaseDir is the shared download root; the mirror lands in a
	// URL-derived subdirectory of BaseDir/doc-links.
	BaseDir string

	Logger *slog.Logger
}

// TargetDir returns the directory a mirror of rawURL would land in.
func TargetDir(baseDir, rawURL string) string {
	return filepath.Join(baseDir, "doc-links", textutil.SafeDirNameFromURL(rawURL))
}

// ValidateURL rejects obviously malformed mirror targets before wget runs.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" && parsed.Scheme != "ftp" {
		return fmt.Errorf("invalid url %q: unsupported scheme %q", rawURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", rawURL)
	}
	return nil
}

// Mirror downloads rawURL recursively and returns the directory the mirror
// was written to. wget's own diagnostic output is part of any error.
func Mirror(ctx context.Context, rawURL string, opts Options) (string, error) {
	logger := logging.NewComponentLogger(opts.Logger, "docmirror")

	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "wget"
	}

	target := TargetDir(opts.BaseDir, rawURL)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create mirror directory: %w", err)
	}

	args := []string{
		"--recursive",
		"--level=inf",
		"--mirror",
		"--convert-links",
		"--adjust-extension",
		"--page-requisites",
		"--no-clobber",
		"--random-wait",
		"--user-agent=" + userAgent,
		"--no-check-certificate",
		"--timeout=10",
		"--tries=3",
		"--wait=1",
		rawURL,
	}

	logger.Info("mirroring site",
		logging.String("url", rawURL),
		logging.String("target", target),
	)

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = target
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("wget %s: %w: %s", rawURL, err, strings.TrimSpace(string(output)))
	}
	return target, nil
}
