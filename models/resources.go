package models

const (
	DefaultMinFreeCPUCores = 2
	DefaultFractionFreeRAM = 0.1
)

// ResourceQuery describes the constraints used to size a worker pool.
// Nil pointer fields are unset.
type ResourceQuery struct {
	// MinFreeCPUCores is the number of cores left idle for everything else.
	MinFreeCPUCores int
	// RAMNeededPerProcess is the memory each worker needs, in bytes. When
	// nil the pool is sized on CPU alone.
	RAMNeededPerProcess *float64
	// FractionFreeRAM is the share of free memory that is never handed to
	// workers, in [0,1).
	FractionFreeRAM float64
	// MaxProcesses is an upper bound on the result.
	MaxProcesses *int
	// MaxRAMUsage caps the memory considered available, in bytes.
	MaxRAMUsage *float64
}

// NewResourceQuery returns a query populated with the usual defaults.
func NewResourceQuery() ResourceQuery {
	return ResourceQuery{
		MinFreeCPUCores: DefaultMinFreeCPUCores,
		FractionFreeRAM: DefaultFractionFreeRAM,
	}
}

// WithRAMNeededPerProcess returns a copy of q with the per-process memory set.
func (q ResourceQuery) WithRAMNeededPerProcess(bytes float64) ResourceQuery {
	q.RAMNeededPerProcess = &bytes
	return q
}

// WithMaxProcesses returns a copy of q capped at n processes.
func (q ResourceQuery) WithMaxProcesses(n int) ResourceQuery {
	q.MaxProcesses = &n
	return q
}

// WithMaxRAMUsage returns a copy of q with the memory ceiling set.
func (q ResourceQuery) WithMaxRAMUsage(bytes float64) ResourceQuery {
	q.MaxRAMUsage = &bytes
	return q
}
