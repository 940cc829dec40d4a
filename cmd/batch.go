package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"gitlab.com/amap/amap-dispatch/batch"
	"gitlab.com/amap/amap-dispatch/executor"
	"gitlab.com/amap/amap-dispatch/internal/config"
	"gitlab.com/amap/amap-dispatch/resources"
	"gitlab.com/amap/amap-dispatch/utils"
)

func NewBatchCmd(fs afero.Fs, source resources.Source, exec executor.Executor) *cobra.Command {
	var logDir string

	cmd := &cobra.Command{
		Use:   "batch <commands.txt>",
		Short: "Run a list of shell commands in parallel",
		Long:  `Run every line of a text file as a shell command, as many at once as the available resources allow. Each command writes to its own log files`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commands, err := utils.GetTextLines(fs, args[0], false)
			if err != nil {
				return err
			}

			cfg := config.GetConfig()
			q, err := resourceQuery(cmd, cfg.Resources)
			if err != nil {
				return err
			}

			if logDir == "" {
				logDir = cfg.General.LogDir
			}
			if err := utils.EnsureDirectoryExists(fs, logDir); err != nil {
				return err
			}

			dispatcher := batch.NewDispatcher(resources.NewEstimator(source), exec, q, logDir)
			jobs := make([]batch.Job, len(commands))
			for i, command := range commands {
				jobs[i] = dispatcher.CommandJob(fmt.Sprintf("command-%d", i+1), command)
			}

			results, runErr := dispatcher.Run(cmd.Context(), jobs)
			failed, notRun := 0, 0
			for _, r := range results {
				switch {
				case r.Err == nil:
				case executor.IsExecutionError(r.Err):
					failed++
				default:
					notRun++
				}
			}
			if len(results) > 0 {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%d of %d commands succeeded, logs in %s\n", len(results)-failed-notRun, len(results), logDir)
				if failed > 0 {
					fmt.Fprintf(out, "%d commands failed, see their .err files\n", failed)
				}
				if notRun > 0 {
					fmt.Fprintf(out, "%d commands could not be started\n", notRun)
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&logDir, "log-dir", "", "directory receiving the .log and .err file of each command")
	addResourceFlags(cmd)
	return cmd
}
