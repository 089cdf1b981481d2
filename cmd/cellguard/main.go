package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/cellguard/internal/logging"
	"github.com/Lin-Jiong-HDU/cellguard/internal/security"
	"github.com/Lin-Jiong-HDU/cellguard/internal/storage"
)

var version = "dev"

// errBlocked makes the process exit with status 2.
var errBlocked = errors.New("one or more cells were blocked")

var (
	configFile string
	debugFlag  bool

	cfg    *storage.Config
	logger = zap.NewNop()
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cellguard",
		Short: "Pre-execution security gate for notebook cells",
		Long: `cellguard scans Python notebook cells before they run.

It flags shell escapes and cell magics, dynamic code execution, environment
tampering, process creation, protected-file writes, persistence, threads
and unsafe deserialization, and blocks cells by severity.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ~/.cellguard/config.yaml)")
	root.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	root.AddCommand(
		getScanCommand(),
		getRulesCommand(),
		getReplCommand(),
		getReviewCommand(),
		getServeCommand(),
		getConfigCommand(),
	)
	return root
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := storage.InitConfig(configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	l, err := logging.New(debugFlag || cfg.Log.Debug)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// newScanner builds a scanner from policy with the shared logger.
func newScanner(policy security.Policy) *security.Scanner {
	return security.NewScanner(&policy, security.WithLogger(logger))
}

func main() {
	err := newRootCommand().Execute()
	if errors.Is(err, errBlocked) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
