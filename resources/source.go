package resources

import (
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"gitlab.com/amap/amap-dispatch/models"
)

// Source reports the CPU and memory a job may use. It is read on every
// call; implementations must not cache.
type Source interface {
	// Name identifies the source in logs and snapshots.
	Name() string
	// CPUCores returns the number of cores the job may use.
	CPUCores() (int, error)
	// FreeMemory returns the memory, in bytes, the job may use.
	FreeMemory() (float64, error)
}

// LiveOSSource reads live counters from the host operating system.
type LiveOSSource struct{}

func (LiveOSSource) Name() string { return "host" }

// CPUCores returns the number of logical cores of the host.
func (LiveOSSource) CPUCores() (int, error) {
	n, err := cpu.Counts(true)
	if err != nil {
		return 0, errors.Wrap(err, "unable to count logical cpu cores")
	}
	return n, nil
}

// FreeMemory returns the memory the kernel reports as available for new
// processes without swapping.
func (LiveOSSource) FreeMemory() (float64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, errors.Wrap(err, "unable to read virtual memory stats")
	}
	return float64(v.Available), nil
}

// Snapshot reads the current environment through source.
func Snapshot(source Source) (models.EnvironmentSnapshot, error) {
	snapshot := models.EnvironmentSnapshot{Source: source.Name()}

	cores, err := source.CPUCores()
	if err != nil {
		return snapshot, err
	}
	snapshot.TotalCPUCores = cores

	ram, err := source.FreeMemory()
	if err != nil {
		return snapshot, err
	}
	snapshot.AvailableRAMBytes = ram

	if cluster, ok := source.(*ClusterAllocationSource); ok {
		snapshot.Allocation = &models.ClusterAllocation{
			JobID:           cluster.JobID,
			AllocatedCores:  cores,
			AllocatedMemory: ram,
		}
	}

	return snapshot, nil
}
