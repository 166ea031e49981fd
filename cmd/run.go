package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/maxkimambo/gasrun/internal/executor"
	"github.com/maxkimambo/gasrun/internal/logger"
	"github.com/maxkimambo/gasrun/internal/task"
	"github.com/maxkimambo/gasrun/internal/ui"
	"github.com/spf13/cobra"
)

var (
	runTask    taskFlags
	runForce   bool
	runTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run KIND",
	Short: "Run a task and everything it depends on in this process",
	Long: `Resolves a task depth first: dependencies whose outputs are already cached
are skipped, missing ones are computed, and dependencies a task discovers
while running are resolved before its output is saved.

With --force the task and every static dependency it reaches are deleted
and recomputed, each at most once.

Example:
gasrun run Root
gasrun run Branch --param result=7 --param branch_again=true
gasrun run Sum --param n=10 --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		t, err := runTask.build(env, args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if runTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runTimeout)
			defer cancel()
		}

		logger.User.Startingf("Resolving %s", task.Describe(t))
		result, err := executor.New(env.store, nil).Run(ctx, t, runForce)
		if len(result.Order) > 0 {
			logger.User.Info(result.Summary())
		}
		if err != nil {
			return err
		}

		path, err := env.store.Location(t)
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(
				fmt.Sprintf("Task complete: %s", task.Describe(t)),
				fmt.Sprintf("%d executed, %d cached", len(result.Executed()), len(result.Cached())),
				"Output: "+path,
			))
		}
		return nil
	},
}

func init() {
	runTask.register(runCmd)
	runCmd.Flags().BoolVar(&runForce, "force", false, "Delete and recompute the task and its static dependencies")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Abort the run after this long (0 = no limit)")
}
