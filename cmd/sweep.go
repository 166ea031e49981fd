package cmd

import (
	"fmt"
	"time"

	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/maxkimambo/gasrun/internal/logger"
	"github.com/spf13/cobra"
)

var sweepMaxAge time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove temporary files left by interrupted writers",
	Long: `Deletes partially written artifact files older than --max-age from the
cache. Complete artifacts are never touched. Keep --max-age well above the
longest write so in-flight writers are not disturbed.

Example:
gasrun sweep --max-age 1h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sweepMaxAge <= 0 {
			return errors.NewConfigurationError("--max-age", fmt.Sprintf("must be positive, got %s", sweepMaxAge))
		}
		env, err := loadEnvironment()
		if err != nil {
			return err
		}

		removed, err := env.store.Sweep(sweepMaxAge)
		if err != nil {
			return err
		}
		logger.User.Successf("Removed %d stale temporary files from %s", removed, env.store.Root())
		return nil
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepMaxAge, "max-age", 24*time.Hour, "Only remove temporary files older than this")
}
