package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liyanghua/xhs-video-tool/internal/config"
	"github.com/liyanghua/xhs-video-tool/internal/pipeline"
	"github.com/liyanghua/xhs-video-tool/internal/services"
	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a project into the final video",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			project, err := config.LoadProject(strings.TrimSpace(projectPath))
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "startup", "load project", projectPath, err)
			}
			logger, err := ctx.consoleLogger()
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "startup", "build logger", "", err)
			}

			deps, cleanup, err := pipeline.Wire(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := pipeline.New(cfg, deps, pipeline.WithLogger(logger)).Run(cmd.Context(), project)
			if err != nil {
				failure := &renderFailure{err: err}
				if result != nil {
					failure.logPath = result.LogPath
				}
				return failure
			}
			printRenderSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectPath, "project", "p", config.DefaultProjectFile, "Project file describing captions and assets")
	return cmd
}

// renderFailure is the concise error shown when a render aborts. The full
// error, including any ffmpeg output, stays in the run log.
type renderFailure struct {
	err     error
	logPath string
}

const maxFailureSummary = 240

func (f *renderFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "render failed (%s): %s", services.Category(f.err), failureSummary(f.err))
	if hint := services.Hint(f.err); hint != "" {
		fmt.Fprintf(&b, "\nhint: %s", hint)
	}
	if f.logPath != "" {
		fmt.Fprintf(&b, "\nsee log: %s", f.logPath)
	}
	return b.String()
}

func (f *renderFailure) Unwrap() error { return f.err }

// failureSummary keeps the first line of err, which carries the marker and
// stage detail, and drops attached tool output.
func failureSummary(err error) string {
	line, _, _ := strings.Cut(err.Error(), "\n")
	line = strings.TrimSpace(line)
	if runes := []rune(line); len(runes) > maxFailureSummary {
		line = string(runes[:maxFailureSummary]) + "..."
	}
	return line
}

func printRenderSummary(out io.Writer, result *pipeline.Result) {
	visuals := 0
	for _, slot := range result.Slots {
		if slot.HasVisual {
			visuals++
		}
	}
	fmt.Fprintf(out, "Output:      %s\n", result.OutputPath)
	fmt.Fprintf(out, "Duration:    %ss\n", timeline.FormatSeconds(result.TotalDuration))
	fmt.Fprintf(out, "Segments:    %d (%d with visuals)\n", len(result.Slots), visuals)
	fmt.Fprintf(out, "Background:  %s\n", backgroundSummary(result))
	if result.IntroClipPath != "" {
		fmt.Fprintf(out, "Intro clip:  %s\n", result.IntroClipPath)
	}
	if result.Reproduced != nil {
		fmt.Fprintf(out, "Reproduced:  %s\n", yesNo(*result.Reproduced))
	}
	if result.Published != nil {
		fmt.Fprintf(out, "Published:   %s\n", result.Published.URI())
	}
	fmt.Fprintf(out, "Run ID:      %s\n", result.RunID)
	fmt.Fprintf(out, "Log:         %s\n", result.LogPath)
}

func backgroundSummary(result *pipeline.Result) string {
	bg := result.Background
	if !bg.Present {
		if bg.Reason == "" {
			return "none"
		}
		return "none (" + bg.Reason + ")"
	}
	return fmt.Sprintf("%s x%d", bg.Track.Path, bg.Track.Repeats)
}
