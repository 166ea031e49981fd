package cmd

import (
	"github.com/maxkimambo/gasrun/internal/scheduler"
	"github.com/maxkimambo/gasrun/internal/task"
	"github.com/spf13/cobra"
)

var (
	submitTask    taskFlags
	submitWorkers int
	submitLocal   bool
	submitHost    string
	submitPort    int
)

var submitCmd = &cobra.Command{
	Use:   "submit KIND",
	Short: "Hand a task to the shared scheduler or a local worker pool",
	Long: `Submits a task for execution without walking its dependencies here.

By default the task goes to the scheduler daemon named by scheduler.host and
scheduler.port in the configuration. --local instead starts an in-process
pool of --workers executors sharing the cache.

Example:
gasrun submit Root --workers 4
gasrun submit Sum --param n=100 --host sched.internal --port 8082
gasrun submit Root --local --workers 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		t, err := submitTask.build(env, args[0])
		if err != nil {
			return err
		}

		workers := env.cfg.Scheduler.Workers
		if cmd.Flags().Changed("workers") {
			workers = submitWorkers
		}

		endpoint := scheduler.LocalEndpoint()
		if !submitLocal {
			host, port := env.cfg.Scheduler.Host, env.cfg.Scheduler.Port
			if cmd.Flags().Changed("host") {
				host = submitHost
			}
			if cmd.Flags().Changed("port") {
				port = submitPort
			}
			endpoint = scheduler.RemoteEndpoint(host, port)
		}

		gw := scheduler.New(env.store, env.cfg.Scheduler)
		return gw.Submit(cmd.Context(), []task.Task{t}, workers, endpoint)
	},
}

func init() {
	submitTask.register(submitCmd)
	submitCmd.Flags().IntVar(&submitWorkers, "workers", 1, "Number of workers (default from scheduler.workers)")
	submitCmd.Flags().BoolVar(&submitLocal, "local", false, "Run on an in-process worker pool instead of the shared scheduler")
	submitCmd.Flags().StringVar(&submitHost, "host", "", "Scheduler host (default from scheduler.host)")
	submitCmd.Flags().IntVar(&submitPort, "port", 0, "Scheduler port (default from scheduler.port)")
}
