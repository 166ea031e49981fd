package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/maxkimambo/gasrun/internal/logger"
	"github.com/maxkimambo/gasrun/internal/task"
	"github.com/maxkimambo/gasrun/internal/ui"
	"github.com/spf13/cobra"
)

var (
	showTask taskFlags
	showRaw  bool
)

var showCmd = &cobra.Command{
	Use:   "show KIND",
	Short: "Print a task's cached output",
	Long: `Reads and decodes a task's artifact. Missing and unreadable artifacts are
reported as distinct errors. --raw prints only the payload as JSON.

Example:
gasrun show Root
gasrun show Sum --param n=3 --raw`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		t, err := showTask.build(env, args[0])
		if err != nil {
			return err
		}

		envelope, err := env.store.ReadEnvelope(t)
		if err != nil {
			if errors.IsRecoverable(err) {
				logger.User.Infof("%s has not run yet; 'gasrun run %s' computes it", task.Describe(t), args[0])
			}
			return err
		}

		var payload bytes.Buffer
		if err := json.Indent(&payload, envelope.Payload, "", "  "); err != nil {
			return err
		}
		if showRaw {
			fmt.Fprintln(cmd.OutOrStdout(), payload.String())
			return nil
		}

		path, err := env.store.Location(t)
		if err != nil {
			return err
		}
		report := ui.NewReportBuilder().
			Header(string(envelope.Identity)).
			AddKeyValue("Task", task.Describe(t)).
			AddKeyValue("Written", envelope.WrittenAt.Local().Format(time.RFC3339)).
			AddKeyValue("Codec", env.store.Codec().Name()).
			AddKeyValue("Location", path).
			Section("Output").
			AddIndented(payload.String(), 1)
		fmt.Fprint(cmd.OutOrStdout(), report.Build())
		return nil
	},
}

func init() {
	showTask.register(showCmd)
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print only the decoded output as JSON")
}
