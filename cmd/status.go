package cmd

import (
	"fmt"

	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/maxkimambo/gasrun/internal/executor"
	"github.com/spf13/cobra"
)

var (
	statusTask   taskFlags
	statusFormat string
)

var statusCmd = &cobra.Command{
	Use:   "status KIND",
	Short: "Show which tasks a run would need to compute",
	Long: `Walks a task's static dependencies without running anything and prints
each task with its artifact location and whether it is already cached.
Dependencies of cached tasks are not listed since a run would not visit them.
With --format dot the plan is printed as a Graphviz digraph instead.

Examples:
gasrun status Root
gasrun status Root --format dot | dot -Tsvg > plan.svg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		t, err := statusTask.build(env, args[0])
		if err != nil {
			return err
		}

		switch statusFormat {
		case "table", "dot":
		default:
			return errors.NewConfigurationError("--format", fmt.Sprintf("unknown format '%s' (want table or dot)", statusFormat))
		}

		entries, err := executor.New(env.store, nil).Plan(cmd.Context(), t)
		if err != nil {
			return err
		}
		if statusFormat == "dot" {
			fmt.Fprint(cmd.OutOrStdout(), executor.PlanDOT(entries))
			return nil
		}

		pending := 0
		for _, e := range entries {
			if !e.Complete {
				pending++
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), executor.PlanTable(entries))
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d tasks need to run\n", pending, len(entries))
		return nil
	},
}

func init() {
	statusTask.register(statusCmd)
	statusCmd.Flags().StringVar(&statusFormat, "format", "table", "Output format: table or dot")
}
