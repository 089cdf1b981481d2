package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/cellguard/internal/notebook"
	"github.com/Lin-Jiong-HDU/cellguard/internal/report"
	"github.com/Lin-Jiong-HDU/cellguard/internal/security"
)

var (
	scanFormat            string
	scanOutput            string
	scanBlockMedium       bool
	scanAllowHigh         bool
	scanAnalyzeUnparsable bool
)

func getScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan notebooks, percent-format scripts or raw cells",
		Long: `Scan every code cell of the given files.

.ipynb files contribute their code cells, .py files are split at "# %%"
markers, anything else is scanned as one cell. "-" or no path reads stdin.

Exits with status 2 when any cell is blocked.`,
		RunE: runScan,
	}

	cmd.Flags().StringVarP(&scanFormat, "format", "f", "", "output format: text, json, sarif, markdown (default from config)")
	cmd.Flags().StringVarP(&scanOutput, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&scanBlockMedium, "block-medium", false, "also block MEDIUM findings")
	cmd.Flags().BoolVar(&scanAllowHigh, "allow-high", false, "do not block HIGH findings")
	cmd.Flags().BoolVar(&scanAnalyzeUnparsable, "analyze-unparsable", false, "scan code that does not parse instead of passing it")

	return cmd
}

// scanPolicy applies the command-line overrides to the configured policy.
func scanPolicy(base security.Policy) security.Policy {
	p := base
	if scanBlockMedium {
		p.BlockMediumRisk = true
	}
	if scanAllowHigh {
		p.BlockHighRisk = false
	}
	if scanAnalyzeUnparsable {
		p.AnalyzeUnparsable = true
	}
	return p
}

func runScan(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"-"}
	}

	format := scanFormat
	if format == "" {
		format = cfg.Output.Format
	}

	scanner := newScanner(scanPolicy(cfg.Scanner))
	rep := report.New("cellguard", version)
	for _, path := range args {
		doc, err := loadDocument(cmd, path)
		if err != nil {
			return err
		}
		fr := rep.Add(doc, scanner)
		logger.Debug("file scanned", zap.String("path", path), zap.Int("cells", len(fr.Cells)))
	}

	var out io.Writer = cmd.OutOrStdout()
	if scanOutput != "" {
		f, err := os.Create(scanOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := report.Write(out, format, rep); err != nil {
		return err
	}

	if rep.Blocked() {
		return errBlocked
	}
	return nil
}

// loadDocument reads path, taking "-" from the command's input.
func loadDocument(cmd *cobra.Command, path string) (*notebook.Document, error) {
	if path == "-" {
		return notebook.Read("<stdin>", cmd.InOrStdin())
	}
	return notebook.Load(path)
}
