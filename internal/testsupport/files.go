package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes size bytes of filler to path, creating parent
// directories. A size <= 0 writes a single byte so the file is never empty.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	WriteText(t, path, string(bytes.Repeat([]byte{'B'}, int(size))))
}

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
