package cmd

import (
	"github.com/spf13/afero"

	"gitlab.com/amap/amap-dispatch/executor"
	"gitlab.com/amap/amap-dispatch/internal/logger"
	"gitlab.com/amap/amap-dispatch/resources"
)

var (
	zlog *logger.Logger

	osFs          = afero.NewOsFs()
	shellExecutor = executor.NewShellExecutor()
)

func init() {
	zlog = logger.New("cmd")

	// the source is chosen once; SLURM is only queried when a command reads it
	source := resources.DefaultSource()

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a configuration file")

	rootCmd.AddCommand(NewCapacityCmd(source))
	rootCmd.AddCommand(NewExecCmd(shellExecutor))
	rootCmd.AddCommand(NewFilesCmd(osFs))
	rootCmd.AddCommand(NewRegisterCmd(osFs, source, shellExecutor))
	rootCmd.AddCommand(NewBatchCmd(osFs, source, shellExecutor))
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
