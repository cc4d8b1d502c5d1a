package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liyanghua/xhs-video-tool/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}
			if err := writeScaffold(target, overwrite, config.CreateSample); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set narration.provider and paths.work_dir before rendering.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configSeen {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Work dir:    %s\n", cfg.Paths.WorkDir)
			fmt.Fprintf(out, "Canvas:      %s @ %d fps\n", cfg.CanvasSize(), cfg.Canvas.FrameRate)
			fmt.Fprintf(out, "Narration:   %s (%s)\n", cfg.Narration.Provider, cfg.Narration.Language)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

// writeScaffold resolves target, refuses to clobber an existing file unless
// overwrite is set and then calls create.
func writeScaffold(target string, overwrite bool, create func(string) error) error {
	expanded, err := config.ExpandPath(target)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	dir := filepath.Dir(expanded)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	if !overwrite {
		if _, err := os.Stat(expanded); err == nil {
			return fmt.Errorf("file already exists at %s (use --overwrite to replace it)", expanded)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("check path: %w", err)
		}
	}
	if err := create(expanded); err != nil {
		return fmt.Errorf("write %s: %w", expanded, err)
	}
	return nil
}
