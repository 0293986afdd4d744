package docmirror

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pykit/internal/logging"
)

func TestValidateURL(t *testing.T) {
	valid := []string{"https://docs.example.com", "http://example.com/a/b", "ftp://files.example.com"}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}
	invalid := []string{"", "example.com", "file:///etc/passwd", "https://"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", u)
		}
	}
}

func TestMirrorRunsWgetInTargetDir(t *testing.T) {
	work := t.TempDir()
	argLog := filepath.Join(work, "args.log")
	wget := filepath.Join(work, "wget")
	script := "#!/bin/sh\necho \"$PWD $@\" >> \"" + argLog + "\"\nexit 0\n"
	if err := os.WriteFile(wget, []byte(script), 0o755); err != nil {
		t.Fatalf("write wget stub: %v", err)
	}

	base := filepath.Join(work, "downloads")
	target, err := Mirror(context.Background(), "https://docs.example.com/guide", Options{
		Binary:  wget,
		BaseDir: base,
		Logger:  logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("Mirror failed: %v", err)
	}
	if want := TargetDir(base, "https://docs.example.com/guide"); target != want {
		t.Fatalf("unexpected target: %q want %q", target, want)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("target dir missing: %v", err)
	}

	raw, err := os.ReadFile(argLog)
	if err != nil {
		t.Fatalf("read arg log: %v", err)
	}
	logged := string(raw)
	if !strings.HasPrefix(logged, target+" ") {
		t.Fatalf("wget did not run inside target dir: %q", logged)
	}
	for _, flag := range []string{"--mirror", "--convert-links", "--no-clobber", "https://docs.example.com/guide"} {
		if !strings.Contains(logged, flag) {
			t.Fatalf("missing %q in wget args: %q", flag, logged)
		}
	}
}

func TestMirrorSurfacesWgetFailure(t *testing.T) {
	work := t.TempDir()
	wget := filepath.Join(work, "wget")
	script := "#!/bin/sh\necho 'wget: unable to resolve host' >&2\nexit 4\n"
	if err := os.WriteFile(wget, []byte(script), 0o755); err != nil {
		t.Fatalf("write wget stub: %v", err)
	}

	_, err := Mirror(context.Background(), "https://nope.invalid", Options{
		Binary:  wget,
		BaseDir: filepath.Join(work, "downloads"),
		Logger:  logging.NewNop(),
	})
	if err == nil || !strings.Contains(err.Error(), "unable to resolve host") {
		t.Fatalf("expected wget diagnostics in error, got %v", err)
	}
}

func TestMirrorRejectsBadURL(t *testing.T) {
	if _, err := Mirror(context.Background(), "not a url", Options{BaseDir: t.TempDir(), Logger: logging.NewNop()}); err == nil {
		t.Fatal("expected error for malformed url")
	}
}
