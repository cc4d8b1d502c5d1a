package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/liyanghua/xhs-video-tool/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level       string
	Format      string
	OutputPaths []string
	Development bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	writer, err := openWriters(defaultSlice(opts.OutputPaths, []string{"stdout"}))
	if err != nil {
		return nil, err
	}
	handler, err := NewHandler(writer, opts)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// NewHandler builds a console or JSON handler writing to w.
func NewHandler(w io.Writer, opts Options) (slog.Handler, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	addSource := opts.Development || level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	switch format {
	case "json":
		return newJSONHandler(w, levelVar, addSource)
	case "console":
		return newPrettyHandler(w, levelVar, addSource), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig creates the console logger using application config defaults.
// Per-run log files are attached later by the pipeline via OpenRunLog.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}
	return New(Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

// RunLog is an open per-run log file.
type RunLog struct {
	Path    string
	Handler slog.Handler
	file    *os.File
}

// OpenRunLog creates the run log file at path and returns a handler writing to
// it. Every record is stamped with runID. Debug records are always kept in the
// file regardless of the console level.
func OpenRunLog(path, runID string, opts Options) (*RunLog, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, fmt.Errorf("ensure run log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}
	opts.Level = "debug"
	opts.Development = false
	handler, err := NewHandler(file, opts)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &RunLog{
		Path:    path,
		Handler: newRunIDHandler(handler, runID),
		file:    file,
	}, nil
}

// Close flushes and closes the run log file.
func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	if err := r.file.Sync(); err != nil {
		_ = r.file.Close()
		r.file = nil
		return fmt.Errorf("sync run log: %w", err)
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultSlice(value []string, fallback []string) []string {
	if len(value) == 0 {
		value = fallback
	}
	cp := make([]string, len(value))
	copy(cp, value)
	return cp
}

func openWriters(paths []string) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		switch trimmed {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := ensureLogDir(trimmed); err != nil {
				return nil, err
			}
			file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", trimmed, err)
			}
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
