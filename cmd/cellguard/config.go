package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/cellguard/internal/storage"
	"github.com/Lin-Jiong-HDU/cellguard/internal/terminal"
)

var configForce bool

func getConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		// A broken existing file must not stop it being replaced.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE:              runConfigInit,
	}
	initCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file without asking")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE:  runConfigShow,
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func configTarget() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	return storage.GetConfigPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := configTarget()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		ok, err := terminal.ConfirmWithIO("Overwrite existing config?", []string{path}, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Config left unchanged.")
			return nil
		}
	}

	written, err := storage.SaveConfig(storage.DefaultConfig(), path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", written)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "scanner:")
	fmt.Fprintf(out, "  block_high_risk: %t\n", cfg.Scanner.BlockHighRisk)
	fmt.Fprintf(out, "  block_medium_risk: %t\n", cfg.Scanner.BlockMediumRisk)
	fmt.Fprintf(out, "  analyze_unparsable: %t\n", cfg.Scanner.AnalyzeUnparsable)
	fmt.Fprintln(out, "log:")
	fmt.Fprintf(out, "  debug: %t\n", cfg.Log.Debug)
	fmt.Fprintln(out, "output:")
	fmt.Fprintf(out, "  format: %s\n", cfg.Output.Format)
	fmt.Fprintf(out, "  render_markdown: %t\n", cfg.Output.RenderMarkdown)
	fmt.Fprintf(out, "  width: %d\n", cfg.Output.Width)
	return nil
}
