package models

// ClusterAllocation is the fixed grant of cores and memory a batch
// scheduler assigned to the current job.
type ClusterAllocation struct {
	JobID           string  `json:"job_id"`
	AllocatedCores  int     `json:"allocated_cores"`
	AllocatedMemory float64 `json:"allocated_memory"` // bytes
}

// EnvironmentSnapshot holds the resources seen at the time of a call.
// It is never cached: the host or allocation may change between calls.
type EnvironmentSnapshot struct {
	Source            string             `json:"source"`
	TotalCPUCores     int                `json:"total_cpu_cores"`
	AvailableRAMBytes float64            `json:"available_ram_bytes"`
	Allocation        *ClusterAllocation `json:"cluster_allocation,omitempty"`
}
