package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"gitlab.com/amap/amap-dispatch/internal/config"
	"gitlab.com/amap/amap-dispatch/models"
	"gitlab.com/amap/amap-dispatch/resources"
)

func NewCapacityCmd(source resources.Source) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Display resources and the number of workers they allow",
		Long:  `Read the cores and memory available to this process, from the SLURM allocation when running inside a job, and estimate how many workers can run`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := resourceQuery(cmd, config.GetConfig().Resources)
			if err != nil {
				return err
			}

			snapshot, err := resources.Snapshot(source)
			if err != nil {
				return fmt.Errorf("could not read resources: %w", err)
			}

			workers, err := resources.NewEstimator(source).EstimateWorkerCount(q)
			if err != nil {
				return fmt.Errorf("could not estimate worker count: %w", err)
			}

			table := setupTable(cmd.OutOrStdout())
			for _, row := range capacityRows(snapshot, q, workers) {
				table.Append(row)
			}
			table.Render()
			return nil
		},
	}

	addResourceFlags(cmd)
	return cmd
}

func capacityRows(s models.EnvironmentSnapshot, q models.ResourceQuery, workers int) [][]string {
	rows := [][]string{
		{"Source", s.Source},
		{"CPU cores", strconv.Itoa(s.TotalCPUCores)},
		{"Available memory", formatBytes(s.AvailableRAMBytes)},
	}
	if s.Allocation != nil {
		rows = append(rows,
			[]string{"SLURM job", s.Allocation.JobID},
			[]string{"Allocated cores", strconv.Itoa(s.Allocation.AllocatedCores)},
			[]string{"Allocated memory", formatBytes(s.Allocation.AllocatedMemory)},
		)
	}

	rows = append(rows, []string{"Reserved cores", strconv.Itoa(q.MinFreeCPUCores)})
	if q.RAMNeededPerProcess != nil {
		rows = append(rows, []string{"Memory per process", formatBytes(*q.RAMNeededPerProcess)})
	}
	if q.MaxProcesses != nil {
		rows = append(rows, []string{"Max processes", strconv.Itoa(*q.MaxProcesses)})
	}
	if q.MaxRAMUsage != nil {
		rows = append(rows, []string{"Max memory", formatBytes(*q.MaxRAMUsage)})
	}
	return append(rows, []string{"Workers", strconv.Itoa(workers)})
}

func setupTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Resource", "Value"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}
