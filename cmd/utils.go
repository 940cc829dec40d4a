package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gitlab.com/amap/amap-dispatch/internal/config"
	"gitlab.com/amap/amap-dispatch/models"
)

const (
	flagMinFreeCores    = "min-free-cores"
	flagRAMPerProcess   = "ram-per-process"
	flagFractionFreeRAM = "fraction-free-ram"
	flagMaxProcesses    = "max-processes"
	flagMaxRAM          = "max-ram"
)

// addResourceFlags registers the flags that override the resources section
// of the configuration.
func addResourceFlags(cmd *cobra.Command) {
	cmd.Flags().Int(flagMinFreeCores, models.DefaultMinFreeCPUCores, "number of cpu cores to leave free")
	cmd.Flags().String(flagRAMPerProcess, "", "memory needed by each process, e.g. 4GiB")
	cmd.Flags().Float64(flagFractionFreeRAM, models.DefaultFractionFreeRAM, "fraction of free memory never handed to processes")
	cmd.Flags().Int(flagMaxProcesses, 0, "upper bound on the number of processes")
	cmd.Flags().String(flagMaxRAM, "", "maximum memory to use in total, e.g. 64GB")
}

// resourceQuery builds the query from the configuration, overridden by any
// flag set on the command line.
func resourceQuery(cmd *cobra.Command, c config.Resources) (models.ResourceQuery, error) {
	// viper supplies the defaults, so zeros here were configured
	q := models.NewResourceQuery()
	q.MinFreeCPUCores = c.MinFreeCPUCores
	if err := checkFraction("resources.fraction_free_ram", c.FractionFreeRAM); err != nil {
		return q, err
	}
	q.FractionFreeRAM = c.FractionFreeRAM
	if c.RAMNeededPerProcess > 0 {
		q = q.WithRAMNeededPerProcess(c.RAMNeededPerProcess)
	}
	if c.MaxProcesses > 0 {
		q = q.WithMaxProcesses(c.MaxProcesses)
	}
	if c.MaxRAMUsage > 0 {
		q = q.WithMaxRAMUsage(c.MaxRAMUsage)
	}

	flags := cmd.Flags()
	if flags.Changed(flagMinFreeCores) {
		q.MinFreeCPUCores, _ = flags.GetInt(flagMinFreeCores)
	}
	if flags.Changed(flagFractionFreeRAM) {
		f, _ := flags.GetFloat64(flagFractionFreeRAM)
		if err := checkFraction("--"+flagFractionFreeRAM, f); err != nil {
			return q, err
		}
		q.FractionFreeRAM = f
	}
	if flags.Changed(flagMaxProcesses) {
		n, _ := flags.GetInt(flagMaxProcesses)
		q = q.WithMaxProcesses(n)
	}
	if flags.Changed(flagRAMPerProcess) {
		raw, _ := flags.GetString(flagRAMPerProcess)
		bytes, err := humanize.ParseBytes(raw)
		if err != nil {
			return q, fmt.Errorf("invalid --%s: %w", flagRAMPerProcess, err)
		}
		q = q.WithRAMNeededPerProcess(float64(bytes))
	}
	if flags.Changed(flagMaxRAM) {
		raw, _ := flags.GetString(flagMaxRAM)
		bytes, err := humanize.ParseBytes(raw)
		if err != nil {
			return q, fmt.Errorf("invalid --%s: %w", flagMaxRAM, err)
		}
		q = q.WithMaxRAMUsage(float64(bytes))
	}
	return q, nil
}

func checkFraction(name string, f float64) error {
	if f < 0 || f >= 1 {
		return fmt.Errorf("%s must be in [0,1), got %g", name, f)
	}
	return nil
}

func formatBytes(b float64) string {
	if b <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(b))
}
