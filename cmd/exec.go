package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/amap/amap-dispatch/executor"
)

func NewExecCmd(exec executor.Executor) *cobra.Command {
	var logPath, errorPath string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "exec [flags] -- command [args...]",
		Short: "Run a shell command with its output saved to files",
		Long:  `Run a command through /bin/sh, saving stdout and stderr to files. When it fails, both files are printed along with the command`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			if logPath == "" && errorPath == "" {
				logPath, errorPath = executor.DefaultPaths()
			}

			record, err := exec.Run(ctx, strings.Join(args, " "), logPath, errorPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Command finished with status %d\n", record.ExitStatus)
			fmt.Fprintf(cmd.OutOrStdout(), "  stdout: %s\n  stderr: %s\n", record.LogPath, record.ErrorPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&logPath, "log", "l", "", "file receiving stdout")
	cmd.Flags().StringVarP(&errorPath, "err", "e", "", "file receiving stderr")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "kill the command after this duration")
	return cmd
}
