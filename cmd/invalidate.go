package cmd

import (
	"github.com/maxkimambo/gasrun/internal/executor"
	"github.com/maxkimambo/gasrun/internal/logger"
	"github.com/maxkimambo/gasrun/internal/task"
	"github.com/maxkimambo/gasrun/internal/ui"
	"github.com/spf13/cobra"
)

var (
	invalidateTask taskFlags
	invalidateDeps bool
	invalidateYes  bool
)

var invalidateCmd = &cobra.Command{
	Use:   "invalidate KIND",
	Short: "Delete a task's cached output so the next run recomputes it",
	Long: `Deletes only the named task's artifact. Artifacts of its dependencies are
left in place unless --deps is given, in which case every cached task
reachable through static dependencies is deleted after confirmation.

Examples:
gasrun invalidate Branch --param result=7 --param branch_again=true
gasrun invalidate Root --deps --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		t, err := invalidateTask.build(env, args[0])
		if err != nil {
			return err
		}

		inv := executor.NewInvalidator(env.store)
		if !invalidateDeps {
			removed, err := inv.Invalidate(t)
			if err != nil {
				return err
			}
			if !removed {
				logger.User.Infof("No cached output for %s", task.Describe(t))
			}
			return nil
		}

		entries, err := executor.New(env.store, nil).Closure(cmd.Context(), t)
		if err != nil {
			return err
		}
		var cached []executor.PlanEntry
		var names []string
		for _, e := range entries {
			exists, err := env.store.Exists(e.Task)
			if err != nil {
				return err
			}
			if exists {
				cached = append(cached, e)
				names = append(names, e.Description)
			}
		}
		if len(cached) == 0 {
			logger.User.Infof("No cached output under %s", task.Describe(t))
			return nil
		}
		if !invalidateYes {
			ok, err := ui.ConfirmItems(cmd.InOrStdin(), cmd.OutOrStdout(), "invalidate", names)
			if err != nil {
				return err
			}
			if !ok {
				logger.User.Info("Invalidation cancelled")
				return nil
			}
		}
		for _, e := range cached {
			if _, err := inv.Invalidate(e.Task); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	invalidateTask.register(invalidateCmd)
	invalidateCmd.Flags().BoolVar(&invalidateDeps, "deps", false, "Also delete artifacts of every static dependency")
	invalidateCmd.Flags().BoolVarP(&invalidateYes, "yes", "y", false, "Skip the confirmation prompt")
}
