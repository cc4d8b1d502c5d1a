package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/liyanghua/xhs-video-tool/internal/config"
	"github.com/liyanghua/xhs-video-tool/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckReadableFile verifies that path is a regular file the process can read.
func CheckReadableFile(name, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckBackground reports the background music state. A missing file is not
// a failure because renders skip the bed in that case.
func CheckBackground(cfg *config.Config) Result {
	const name = "Background music"
	path := cfg.BackgroundPath()
	if path == "" {
		return Result{Name: name, Passed: true, Detail: "Not configured (narration only)"}
	}
	if check := CheckReadableFile(name, path); check.Passed {
		return check
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s missing (narration only)", path)}
}

// CheckNarrationCredentials verifies the Cloud TTS service account file when
// that provider is selected.
func CheckNarrationCredentials(cfg *config.Config) Result {
	const name = "Narration credentials"
	if cfg.Narration.Provider != config.ProviderGoogleCloud {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Not required (%s provider)", cfg.Narration.Provider)}
	}
	if strings.TrimSpace(cfg.Narration.CredentialsFile) == "" {
		return Result{Name: name, Passed: true, Detail: "Application default credentials"}
	}
	return CheckReadableFile(name, cfg.Narration.CredentialsFile)
}

// CheckPublish reports whether S3 publishing is configured.
func CheckPublish(cfg *config.Config) Result {
	const name = "Publish"
	if !cfg.Publish.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.Publish.Bucket) == "" {
		return Result{Name: name, Detail: "Missing bucket"}
	}
	return Result{Name: name, Passed: true, Detail: "s3://" + filepath.ToSlash(filepath.Join(cfg.Publish.Bucket, cfg.Publish.Prefix))}
}

// CheckSystemDeps evaluates the external binaries for the given config. Both
// the render preflight and the doctor command use this list.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.RenderRequirements(cfg.FFmpeg.FFmpegBinary, cfg.FFmpeg.FFprobeBinary))
}
