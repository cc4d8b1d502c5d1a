package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/liyanghua/xhs-video-tool/internal/config"
	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

func newProjectCommand() *cobra.Command {
	projectCmd := &cobra.Command{
		Use:         "project",
		Short:       "Project file utilities",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	projectCmd.AddCommand(newProjectInitCommand())
	projectCmd.AddCommand(newProjectValidateCommand())
	return projectCmd
}

func newProjectInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample seven-segment project file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeScaffold(targetPath, overwrite, config.CreateSampleProject); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample project to %s\n", targetPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", config.DefaultProjectFile, "Destination for the project file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing project if present")
	return cmd
}

func newProjectValidateCommand() *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a project file and list its segments",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := config.LoadProject(projectPath)
			if err != nil {
				return fmt.Errorf("load project: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project:   %s\n", project.Path)
			fmt.Fprintf(out, "Video dir: %s\n", project.VideoDir)
			fmt.Fprintf(out, "Images:    %d\n", len(project.Images))
			fmt.Fprintf(out, "Output:    %s\n", project.OutputName())

			rows := make([][]string, 0, len(project.Segments))
			for i, seg := range project.Segments {
				visual := "none"
				switch {
				case i == 0:
					visual = "video"
				case i-1 < len(project.Images):
					visual = project.Images[i-1]
				}
				rows = append(rows, []string{
					strconv.Itoa(i),
					seg.Name,
					seg.Text,
					timeline.FormatSeconds(seg.Start),
					timeline.FormatSeconds(seg.TargetDuration),
					visual,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{right("#"), left("Name"), left("Text"), right("Nominal start"), right("Target"), left("Visual")},
				rows,
				shouldColorize(out),
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectPath, "path", "p", config.DefaultProjectFile, "Project file to check")
	return cmd
}
