package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/liyanghua/xhs-video-tool/internal/logging"
	"github.com/liyanghua/xhs-video-tool/internal/services"
	"github.com/liyanghua/xhs-video-tool/internal/testsupport"
)

func TestNewRunContextCreatesTimestampedDirs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Format = "json"
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)

	rc, err := NewRunContext(cfg, nil, now)
	if err != nil {
		t.Fatalf("run context: %v", err)
	}
	defer rc.Close()

	if rc.Timestamp != "20250304_050607" || rc.ID == "" {
		t.Fatalf("unexpected identity %q %q", rc.Timestamp, rc.ID)
	}
	for _, dir := range []string{rc.Dirs.Debug, rc.Dirs.Audio, rc.Dirs.Temp, rc.Dirs.Output, rc.Dirs.Logs} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("missing dir %s: %v", dir, err)
		}
	}
	if filepath.Base(rc.Dirs.Audio) != rc.Timestamp {
		t.Fatalf("audio dir should be timestamped: %s", rc.Dirs.Audio)
	}
	if rc.LogPath != filepath.Join(cfg.Paths.LogDir, "process_20250304_050607.log") {
		t.Fatalf("unexpected log path %s", rc.LogPath)
	}

	rc.Logger.Info("hello from the run", logging.String(logging.FieldEventType, "test"))
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	data, err := os.ReadFile(rc.LogPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(data), "hello from the run") || !strings.Contains(string(data), rc.ID) {
		t.Fatalf("run log missing record or run id: %s", data)
	}
}

func TestRunContextHoldsOutputLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := NewRunContext(cfg, nil, time.Now())
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := NewRunContext(cfg, nil, time.Now().Add(time.Second)); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected lock conflict, got %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	second, err := NewRunContext(cfg, nil, time.Now().Add(2*time.Second))
	if err != nil {
		t.Fatalf("lock should be released after close: %v", err)
	}
	_ = second.Close()
}
