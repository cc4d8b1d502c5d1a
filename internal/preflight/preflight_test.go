package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/liyanghua/xhs-video-tool/internal/config"
	"github.com/liyanghua/xhs-video-tool/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadableFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "creds.json")
	if err := os.WriteFile(f, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if r := CheckReadableFile("creds", f); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if r := CheckReadableFile("creds", filepath.Dir(f)); r.Passed {
		t.Fatal("directory should not pass as a file")
	}
	if r := CheckReadableFile("creds", ""); r.Passed {
		t.Fatal("empty path should not pass")
	}
}

func TestCheckBackgroundMissingIsNotFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackground(filepath.Join(t.TempDir(), "bgm.mp3")))
	r := CheckBackground(cfg)
	if !r.Passed || !strings.Contains(r.Detail, "narration only") {
		t.Fatalf("expected a passing narration-only result, got %+v", r)
	}
}

func TestCheckNarrationCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if r := CheckNarrationCredentials(cfg); !r.Passed {
		t.Fatalf("translate provider needs no credentials: %s", r.Detail)
	}
	cfg.Narration.Provider = config.ProviderGoogleCloud
	cfg.Narration.CredentialsFile = filepath.Join(t.TempDir(), "missing.json")
	if r := CheckNarrationCredentials(cfg); r.Passed {
		t.Fatal("missing credentials file should fail")
	}
}

func TestCheckPublish(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if r := CheckPublish(cfg); !r.Passed || r.Detail != "Disabled" {
		t.Fatalf("unexpected disabled result %+v", r)
	}
	cfg.Publish.Enabled = true
	if r := CheckPublish(cfg); r.Passed {
		t.Fatal("missing bucket should fail")
	}
	cfg.Publish.Bucket = "renders"
	cfg.Publish.Prefix = "xhs"
	if r := CheckPublish(cfg); !r.Passed || r.Detail != "s3://renders/xhs" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ReportsBinariesAndDirectories(t *testing.T) {
	bin := t.TempDir()
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if err := os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	cfg := testsupport.NewConfig(t)
	cfg.FFmpeg.FFmpegBinary = filepath.Join(bin, "ffmpeg")
	cfg.FFmpeg.FFprobeBinary = filepath.Join(bin, "ffprobe")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if failed := Failures(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	if len(results) != 7 {
		t.Fatalf("expected 7 checks, got %d", len(results))
	}

	cfg.FFmpeg.FFmpegBinary = filepath.Join(bin, "missing-ffmpeg")
	if failed := Failures(RunAll(context.Background(), cfg)); len(failed) != 1 || failed[0].Name != "FFmpeg" {
		t.Fatalf("expected only FFmpeg to fail, got %+v", failed)
	}
}
