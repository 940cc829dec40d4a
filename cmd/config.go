package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gitlab.com/amap/amap-dispatch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configGetCmd = &cobra.Command{
	Use:     "get <key>",
	Short:   "Print a configuration value",
	Example: "  amap config get resources.min_free_cpu_cores",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, ok := config.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown configuration key %q", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}
