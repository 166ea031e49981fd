package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var locateTask taskFlags

var locateCmd = &cobra.Command{
	Use:   "locate KIND",
	Short: "Print where a task's output is stored",
	Long: `Prints the artifact path for a task. The path depends only on the task's
kind and parameters; it is printed whether or not the artifact exists.

Example:
gasrun locate Branch --param result=1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		t, err := locateTask.build(env, args[0])
		if err != nil {
			return err
		}
		path, err := env.store.Location(t)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	locateTask.register(locateCmd)
}
