package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/cellguard/internal/terminal"
)

var replNoRender bool

func getReplCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Scan cells interactively",
		Long: `Paste cells one at a time; an empty line submits the cell.

Commands: /help, /rules, /policy, /clear, /exit.`,
		RunE: runRepl,
	}

	cmd.Flags().BoolVar(&replNoRender, "no-render", false, "disable markdown rendering")

	return cmd
}

func runRepl(cmd *cobra.Command, args []string) error {
	repl := terminal.NewREPL(newScanner(cfg.Scanner), cmd.InOrStdin(), cmd.OutOrStdout())

	if cfg.Output.RenderMarkdown && !replNoRender {
		renderer, err := terminal.NewRenderer(cfg.Output.Width)
		if err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		repl.SetRenderer(renderer)
	}

	return repl.Run()
}
