package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"srtmerge/internal/config"
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
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit [encoding] to match your usual subtitle sources before running srtmerge merge.")
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
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configExists {
				fmt.Fprintln(out, renderStatusLine("Config file", statusWarn, "not found; defaults were used", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Config file", statusOK, "loaded", colorize))
			}
			if _, ok := os.LookupEnv(config.OutputEncodingEnv); ok {
				fmt.Fprintln(out, renderStatusLine("Output encoding", statusWarn, fmt.Sprintf("%s from %s", cfg.Encoding.Output, config.OutputEncodingEnv), colorize))
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Setting", "Value"},
				[][]string{
					{"encoding.bottom", cfg.Encoding.Bottom},
					{"encoding.top", cfg.Encoding.Top},
					{"encoding.output", cfg.Encoding.Output},
					{"sync.range", fmt.Sprintf("%s .. %s", formatSeconds(cfg.Sync.MinOffset), formatSeconds(cfg.Sync.MaxOffset))},
					{"sync.step", formatSeconds(cfg.Sync.Step)},
					{"sync.window", formatSeconds(cfg.Sync.Window)},
					{"output.font", fmt.Sprintf("%s %d", cfg.Output.FontName, cfg.Output.FontSize)},
					{"output.line_ending", cfg.Output.LineEnding},
					{"logging", fmt.Sprintf("%s/%s", cfg.Logging.Format, cfg.Logging.Level)},
					{"custom file", yesNo(ctx.configExists)},
				},
			))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
