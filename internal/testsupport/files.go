package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes a file of exactly size bytes, creating parent directories
// as needed. Split tests use it to fabricate media inputs whose size drives
// the chunk-count math without shipping real media fixtures. A size <= 0
// writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	block := bytes.Repeat([]byte("pykit"), 4096)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	for written := int64(0); written < size; {
		n := size - written
		if n > int64(len(block)) {
			n = int64(len(block))
		}
		if _, err := f.Write(block[:n]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		written += n
	}
}
