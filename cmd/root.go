package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/maxkimambo/gasrun/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cacheRoot  string
	debug      bool
	verbose    bool
	jsonLogs   bool
	quiet      bool
	version    = "v0.1.0"

	rootCmd = &cobra.Command{
		Use:   "gasrun",
		Short: "Run cached, recursively dependent tasks",
		Long: `gasrun resolves tasks and their dependencies, caching every output on disk
so that no task with the same kind and parameters is ever computed twice.

Tasks run depth first in this process (run), or are handed to a shared
scheduler or a local worker pool (submit). The cache can be inspected and
pruned with locate, show, status, invalidate and sweep.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup(verbose || debug, jsonLogs, quiet)
		},
	}
)

// Execute runs the CLI. Errors are rendered once here with troubleshooting hints.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logger.Op.WithFields(map[string]interface{}{
			"code":     errors.GetErrorCode(err),
			"severity": errors.GetErrorSeverity(err),
		}).Debug(errors.DisplayErrorSummary(err))
		fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
	}
	return err
}

// Exit codes returned by ExitCode.
const (
	ExitFailure   = 1
	ExitUserError = 2
)

// ExitCode maps an Execute error to a process exit status. Bad flags,
// parameters or configuration exit with ExitUserError.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.IsUserError(err):
		return ExitUserError
	default:
		return ExitFailure
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $HOME/.gasrun.yaml)")
	rootCmd.PersistentFlags().StringVar(&cacheRoot, "cache-root", "", "Artifact cache directory (overrides cache_root)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")

	rootCmd.AddCommand(runCmd, submitCmd, invalidateCmd, locateCmd, showCmd, statusCmd, sweepCmd)
}
