package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoMatch is returned when a directory holds no file with a wanted extension.
var ErrNoMatch = errors.New("no matching file")

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// FindFirstByExtension returns the lexically first regular file in dir whose
// extension matches one of exts, compared case-insensitively.
func FindFirstByExtension(dir string, exts ...string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		for _, want := range exts {
			if strings.EqualFold(ext, want) {
				names = append(names, entry.Name())
				break
			}
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w in %s (want %s)", ErrNoMatch, dir, strings.Join(exts, ", "))
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

// RequireFile reports an error unless path names an existing regular file.
func RequireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	return strings.TrimSpace(path) != "" && RequireFile(path) == nil
}
