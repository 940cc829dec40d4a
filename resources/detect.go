package resources

import (
	"os"

	"go.uber.org/zap"
)

// DetectSource picks the resource source once, at startup: the SLURM
// allocation when running inside a job, the live host counters otherwise.
func DetectSource(lookup LookupEnv, query JobQuery) Source {
	if jobID, ok := DetectClusterJob(lookup); ok {
		zlog.Debug("running inside a slurm allocation", zap.String("job_id", jobID))
		return NewClusterAllocationSource(jobID, lookup, query)
	}
	return LiveOSSource{}
}

// DefaultSource detects the source from the process environment.
func DefaultSource() Source {
	return DetectSource(os.LookupEnv, ScontrolShowJob)
}
