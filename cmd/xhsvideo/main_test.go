package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/liyanghua/xhs-video-tool/internal/history"
	"github.com/liyanghua/xhs-video-tool/internal/services"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T, extra string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("[paths]\nwork_dir = %q\n\n[ffmpeg]\nffmpeg_binary = %q\nffprobe_binary = %q\n%s",
		base,
		filepath.Join(base, "bin", "ffmpeg"),
		filepath.Join(base, "bin", "ffprobe"),
		extra,
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{baseDir: base, configPath: configPath}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "1080x1440")
	if _, err := os.Stat(filepath.Join(env.baseDir, "output")); err != nil {
		t.Fatalf("validate should create the output directory: %v", err)
	}

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, err := runCLI(t, env, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestInvalidConfigIsConfigurationError(t *testing.T) {
	env := setupCLITestEnv(t, "\n[logging]\nformat = \"xml\"\n")
	_, err := runCLI(t, env, "config", "validate")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestProjectInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, "")
	target := filepath.Join(env.baseDir, "project.toml")

	out, err := runCLI(t, env, "project", "init", "--path", target)
	if err != nil {
		t.Fatalf("project init: %v", err)
	}
	requireContains(t, out, "Wrote sample project")

	out, err = runCLI(t, env, "project", "validate", "--path", target)
	if err != nil {
		t.Fatalf("project validate: %v", err)
	}
	for _, name := range []string{"intro", "silver", "king", "video", "final_video.mp4"} {
		requireContains(t, out, name)
	}
}

func TestRenderMissingProjectIsConfigurationError(t *testing.T) {
	env := setupCLITestEnv(t, "")
	_, err := runCLI(t, env, "render", "--project", filepath.Join(env.baseDir, "missing.toml"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRenderFailureMessage(t *testing.T) {
	cause := services.Wrap(services.ErrSynthesis, "synthesize-narration", "silver", "synthesize speech", errors.New("boom"))
	failure := &renderFailure{err: cause, logPath: "/logs/process_20250101_000000.log"}

	msg := failure.Error()
	requireContains(t, msg, "render failed (synthesis)")
	requireContains(t, msg, "silver")
	requireContains(t, msg, "see log: /logs/process_20250101_000000.log")
	if !errors.Is(failure, services.ErrSynthesis) {
		t.Fatal("renderFailure should unwrap to its cause")
	}
}

func TestRenderFailureOmitsToolOutput(t *testing.T) {
	tail := strings.Repeat("frame=  120 fps= 24 q=28.0 size=  512kB\n", 60)
	cause := services.Wrap(services.ErrEncoding, "export", "ffmpeg", "final_video.mp4", fmt.Errorf("exit status 1\n%s", tail))
	msg := (&renderFailure{err: cause, logPath: "/logs/process_20250101_000000.log"}).Error()

	requireContains(t, msg, "render failed (encoding)")
	requireContains(t, msg, "final_video.mp4: exit status 1")
	requireContains(t, msg, "see log: /logs/process_20250101_000000.log")
	if strings.Contains(msg, "frame=") {
		t.Fatalf("ffmpeg output should stay in the run log:\n%s", msg)
	}
	if lines := strings.Count(msg, "\n"); lines > 2 {
		t.Fatalf("expected at most three lines, got %d:\n%s", lines+1, msg)
	}

	long := services.Wrap(services.ErrAsset, "build-visual-tracks", "intro", strings.Repeat("x", 500), nil)
	if got := failureSummary(long); len([]rune(got)) != maxFailureSummary+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncated summary, got %d runes", len([]rune(got)))
	}
}

func TestHistoryWithoutLedger(t *testing.T) {
	env := setupCLITestEnv(t, "")
	_, err := runCLI(t, env, "history")
	if err == nil || !strings.Contains(err.Error(), "no history") {
		t.Fatalf("expected missing ledger error, got %v", err)
	}
}

func TestHistoryListsAndShowsRuns(t *testing.T) {
	env := setupCLITestEnv(t, "")
	store, err := history.Open(filepath.Join(env.baseDir, "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	ctx := context.Background()
	started := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := store.BeginRun(ctx, history.Run{ID: "run-ok", ProjectPath: "/p/project.toml", StartedAt: started}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.RecordSegments(ctx, "run-ok", []history.Segment{
		{Index: 0, Name: "intro", Start: 0, Duration: 3, VisualKind: "video"},
		{Index: 1, Name: "bronze", Start: 3, Duration: 2.5},
	}); err != nil {
		t.Fatalf("segments: %v", err)
	}
	if err := store.FinishRun(ctx, "run-ok", "/out/final_video.mp4", 5.5, "", nil); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := store.BeginRun(ctx, history.Run{ID: "run-bad", ProjectPath: "/p/project.toml", StartedAt: started.Add(time.Minute)}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.FinishRun(ctx, "run-bad", "", 0, "synthesis", errors.New("provider down")); err != nil {
		t.Fatalf("finish: %v", err)
	}
	store.Close()

	out, err := runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for _, want := range []string{"run-ok", "run-bad", "succeeded", "failed", "/out/final_video.mp4", "synthesis"} {
		requireContains(t, out, want)
	}
	if strings.Index(out, "run-bad") > strings.Index(out, "run-ok") {
		t.Fatal("newest run should be listed first")
	}

	out, err = runCLI(t, env, "history", "show", "run-ok")
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	for _, want := range []string{"intro", "bronze", "5.500", "none"} {
		requireContains(t, out, want)
	}

	if _, err := runCLI(t, env, "history", "show", "run-missing"); err == nil {
		t.Fatal("expected unknown run to fail")
	}
}

func TestDoctorReportsMissingBinaries(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out, err := runCLI(t, env, "doctor")
	if err == nil {
		t.Fatal("expected doctor to fail without ffmpeg")
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "Output directory")
	requireContains(t, out, "checks failed")
}
