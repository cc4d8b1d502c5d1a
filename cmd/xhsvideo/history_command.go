package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/liyanghua/xhs-video-tool/internal/history"
	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						run.StartedAt.Local().Format(historyTimeLayout),
						string(run.Status),
						timeline.FormatSeconds(run.TotalDuration),
						runOutcome(run),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{left("Run"), left("Started"), left("Status"), right("Duration"), left("Output / error")},
					rows,
					shouldColorize(out),
				))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")

	historyCmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the segment boundaries recorded for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				segments, err := store.Segments(cmd.Context(), run.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:      %s\n", run.ID)
				fmt.Fprintf(out, "Project:  %s\n", run.ProjectPath)
				fmt.Fprintf(out, "Status:   %s\n", run.Status)
				fmt.Fprintf(out, "Elapsed:  %s\n", runElapsed(run))
				fmt.Fprintf(out, "Log:      %s\n", run.LogPath)
				if run.Status == history.StatusFailed {
					fmt.Fprintf(out, "Error:    %s: %s\n", run.ErrorKind, run.ErrorMessage)
				}
				rows := make([][]string, 0, len(segments))
				for _, seg := range segments {
					visual := seg.VisualKind
					if visual == "" {
						visual = "none"
					}
					rows = append(rows, []string{
						strconv.Itoa(seg.Index),
						seg.Name,
						timeline.FormatSeconds(seg.Start),
						timeline.FormatSeconds(seg.Duration),
						timeline.FormatSeconds(seg.Start + seg.Duration),
						visual,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{right("#"), left("Segment"), right("Start"), right("Duration"), right("End"), left("Visual")},
					rows,
					shouldColorize(out),
				))
				return nil
			})
		},
	})

	return historyCmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.Paths.HistoryDB); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no history at %s; render a project first", cfg.Paths.HistoryDB)
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func runOutcome(run history.Run) string {
	switch run.Status {
	case history.StatusFailed:
		return run.ErrorKind
	case history.StatusSucceeded:
		return run.OutputPath
	default:
		return "-"
	}
}

func runElapsed(run *history.Run) string {
	if run.FinishedAt.IsZero() {
		return "in progress"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
