package cmd

import (
	"github.com/spf13/cobra"

	"gitlab.com/amap/amap-dispatch/internal/config"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:     "amap",
	Short:   "Brain atlas registration dispatcher",
	Long:    `Size worker pools from the CPU and memory available to this process and run NiftyReg registration commands on them`,
	Version: Version,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: false,
		HiddenDefaultCmd:  true,
	},
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagConfig == "" {
			return nil
		}
		return config.LoadConfigFile(flagConfig)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	// CheckErr prints formatted error message, if there is any, and exits
	cobra.CheckErr(rootCmd.Execute())
}
