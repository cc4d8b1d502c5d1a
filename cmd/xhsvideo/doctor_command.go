package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liyanghua/xhs-video-tool/internal/deps"
	"github.com/liyanghua/xhs-video-tool/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, ffmpeg capabilities, directories and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			caps := deps.CheckFFmpegCapabilities(cmd.Context(), cfg.FFmpeg.FFmpegBinary, nil)
			results = append(results, preflight.Result{Name: caps.Name, Passed: caps.Available, Detail: caps.Detail})

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("xhsvideo doctor", colorize)
			lines = append(lines, checkLines(results, colorize)...)
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			if failed := preflight.Failures(results); len(failed) > 0 {
				return fmt.Errorf("doctor: %d check(s) failed", len(failed))
			}
			return nil
		},
	}
}
