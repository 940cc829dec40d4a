package resources

import (
	"math"

	"go.uber.org/zap"

	"gitlab.com/amap/amap-dispatch/models"
)

// Estimator sizes worker pools from the resources reported by a Source.
type Estimator struct {
	source Source
}

func NewEstimator(source Source) *Estimator {
	return &Estimator{source: source}
}

// Source returns the strategy the estimator reads from.
func (e *Estimator) Source() Source {
	return e.source
}

// EstimateWorkerCount detects the environment and sizes a pool for q.
// See Estimator.EstimateWorkerCount.
func EstimateWorkerCount(q models.ResourceQuery) (int, error) {
	return NewEstimator(DefaultSource()).EstimateWorkerCount(q)
}

// EstimateWorkerCount returns how many worker processes can run given the
// cores left after reserving q.MinFreeCPUCores, the memory each worker needs
// and q.MaxProcesses.
//
// The result is not clamped: when MinFreeCPUCores exceeds the available
// cores it is negative, and it may be zero when memory is short. Callers
// must treat anything below one as "do not start workers". The only errors
// are failures to read the environment.
func (e *Estimator) EstimateWorkerCount(q models.ResourceQuery) (int, error) {
	zlog.Debug("determining the maximum number of cpu cores to use")

	cores, err := e.source.CPUCores()
	if err != nil {
		return 0, err
	}
	cpuBudget := cores - q.MinFreeCPUCores
	zlog.Debug("cpu cores available", zap.Int("cpu_budget", cpuBudget), zap.String("source", e.source.Name()))

	n := cpuBudget
	if q.RAMNeededPerProcess != nil {
		if *q.RAMNeededPerProcess <= 0 {
			zlog.Warn("ignoring non-positive memory requirement per process",
				zap.Float64("ram_needed_per_process", *q.RAMNeededPerProcess))
		} else {
			freeRAM, err := e.source.FreeMemory()
			if err != nil {
				return 0, err
			}
			ramBudget := CoresWithSufficientRAM(freeRAM, *q.RAMNeededPerProcess, q.FractionFreeRAM, q.MaxRAMUsage)
			n = min(cpuBudget, ramBudget)
			zlog.Debug("memory requirements considered",
				zap.Int("ram_budget", ramBudget),
				zap.Int("n_processes", n))
		}
	}

	if q.MaxProcesses != nil {
		if *q.MaxProcesses < n {
			zlog.Debug("forcing the number of processes", zap.Int("n_max_processes", *q.MaxProcesses))
		}
		n = min(n, *q.MaxProcesses)
	}

	zlog.Debug("setting number of processes", zap.Int("n_processes", n))
	return n, nil
}

// CoresWithSufficientRAM returns how many processes needing ramNeededPerCPU
// bytes fit in freeRAM, after capping freeRAM at maxRAMUsage (when set) and
// keeping fractionFreeRAM of it unused. It says nothing about how many cores
// actually exist.
func CoresWithSufficientRAM(freeRAM, ramNeededPerCPU, fractionFreeRAM float64, maxRAMUsage *float64) int {
	zlog.Debug("free memory", zap.Float64("bytes", freeRAM))

	if maxRAMUsage != nil {
		freeRAM = math.Min(freeRAM, *maxRAMUsage)
		zlog.Debug("maximum memory has been set", zap.Float64("max_ram_usage", *maxRAMUsage), zap.Float64("free_ram", freeRAM))
	}

	usable := freeRAM * (1 - fractionFreeRAM)
	return int(math.Floor(usable / ramNeededPerCPU))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
