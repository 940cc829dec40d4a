package resources

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

const (
	EnvSlurmJobID       = "SLURM_JOB_ID"
	EnvSlurmCPUsOnNode  = "SLURM_CPUS_ON_NODE"
	EnvSlurmMemPerNode  = "SLURM_MEM_PER_NODE" // MiB
	EnvSlurmMemPerCPU   = "SLURM_MEM_PER_CPU"  // MiB
	defaultQueryTimeout = 10 * time.Second
)

// LookupEnv has the signature of os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// JobQuery returns the `scontrol show job` description of a job.
type JobQuery func(ctx context.Context, jobID string) ([]byte, error)

// ScontrolShowJob runs `scontrol show job <id> --oneliner`.
func ScontrolShowJob(ctx context.Context, jobID string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "scontrol", "show", "job", jobID, "--oneliner").Output()
	if err != nil {
		return nil, fmt.Errorf("scontrol show job %s: %w", jobID, err)
	}
	return out, nil
}

// DetectClusterJob probes the environment once for a SLURM job id.
func DetectClusterJob(lookup LookupEnv) (string, bool) {
	id, ok := lookup(EnvSlurmJobID)
	if !ok {
		return "", false
	}
	id = strings.TrimSpace(id)
	return id, id != ""
}

// ClusterAllocationSource reports the cores and memory SLURM granted to the
// running job. The job environment is consulted first and scontrol only
// when it is silent.
type ClusterAllocationSource struct {
	JobID   string
	Timeout time.Duration

	lookup LookupEnv
	query  JobQuery
}

// NewClusterAllocationSource creates a source for jobID. A nil query
// disables the scontrol fallback.
func NewClusterAllocationSource(jobID string, lookup LookupEnv, query JobQuery) *ClusterAllocationSource {
	return &ClusterAllocationSource{
		JobID:   jobID,
		Timeout: defaultQueryTimeout,
		lookup:  lookup,
		query:   query,
	}
}

func (s *ClusterAllocationSource) Name() string { return "slurm" }

func (s *ClusterAllocationSource) CPUCores() (int, error) {
	return s.AllocatedCores()
}

func (s *ClusterAllocationSource) FreeMemory() (float64, error) {
	return s.AllocatedMemory()
}

// AllocatedCores returns the number of cores granted on this node.
func (s *ClusterAllocationSource) AllocatedCores() (int, error) {
	if raw, ok := s.lookup(EnvSlurmCPUsOnNode); ok && strings.TrimSpace(raw) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return 0, errors.Wrapf(err, "invalid %s", EnvSlurmCPUsOnNode)
		}
		return n, nil
	}

	fields, err := s.describeJob()
	if err != nil {
		return 0, err
	}
	return coresFromJob(fields)
}

// AllocatedMemory returns the memory granted to the job on this node, in
// bytes. Only the allocation is considered, not what is currently free on
// the node: nothing else is expected to run inside the allocation.
func (s *ClusterAllocationSource) AllocatedMemory() (float64, error) {
	if raw, ok := s.lookup(EnvSlurmMemPerNode); ok && strings.TrimSpace(raw) != "" {
		return ParseSlurmMemory(raw)
	}

	if raw, ok := s.lookup(EnvSlurmMemPerCPU); ok && strings.TrimSpace(raw) != "" {
		perCPU, err := ParseSlurmMemory(raw)
		if err != nil {
			return 0, err
		}
		cores, err := s.AllocatedCores()
		if err != nil {
			return 0, err
		}
		return perCPU * float64(cores), nil
	}

	fields, err := s.describeJob()
	if err != nil {
		return 0, err
	}
	return memoryFromJob(fields)
}

func (s *ClusterAllocationSource) describeJob() (map[string]string, error) {
	if s.query == nil {
		return nil, fmt.Errorf("slurm job %s: allocation not found in environment", s.JobID)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := s.query(ctx, s.JobID)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to query slurm job %s", s.JobID)
	}
	return parseJobDescription(string(out)), nil
}

// parseJobDescription splits scontrol's Key=Value output. Values holding
// spaces (Command=, WorkDir=) are truncated, none of them are used here.
func parseJobDescription(out string) map[string]string {
	fields := make(map[string]string)
	for _, token := range strings.Fields(out) {
		key, value, found := strings.Cut(token, "=")
		if !found {
			continue
		}
		if _, dup := fields[key]; !dup {
			fields[key] = value
		}
	}
	return fields
}

// parseTRES splits a TRES string such as "cpu=4,mem=16G,node=1".
func parseTRES(tres string) map[string]string {
	out := make(map[string]string)
	for _, item := range strings.Split(tres, ",") {
		key, value, found := strings.Cut(item, "=")
		if found {
			out[key] = value
		}
	}
	return out
}

func coresFromJob(fields map[string]string) (int, error) {
	if raw, ok := fields["NumCPUs"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, errors.Wrap(err, "invalid NumCPUs in job description")
		}
		return n, nil
	}
	if raw, ok := parseTRES(fields["TRES"])["cpu"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, errors.Wrap(err, "invalid cpu count in TRES")
		}
		return n, nil
	}
	return 0, fmt.Errorf("job description has no cpu allocation")
}

func memoryFromJob(fields map[string]string) (float64, error) {
	if raw, ok := parseTRES(fields["TRES"])["mem"]; ok {
		return ParseSlurmMemory(raw)
	}
	if raw, ok := fields["MinMemoryNode"]; ok {
		return ParseSlurmMemory(raw)
	}
	if raw, ok := fields["MinMemoryCPU"]; ok {
		perCPU, err := ParseSlurmMemory(raw)
		if err != nil {
			return 0, err
		}
		cores, err := coresFromJob(fields)
		if err != nil {
			return 0, err
		}
		return perCPU * float64(cores), nil
	}
	return 0, fmt.Errorf("job description has no memory allocation")
}

// ParseSlurmMemory converts a SLURM memory value ("16G", "4000M", "4000")
// to bytes. Units are binary and a bare number is MiB.
func ParseSlurmMemory(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	// older scontrol versions suffix per-node/per-cpu values with n or c
	value = strings.TrimRight(value, "nc")
	if value == "" {
		return 0, fmt.Errorf("empty slurm memory value")
	}

	unit := value[len(value)-1]
	switch unit {
	case 'K', 'M', 'G', 'T', 'P':
		value += "iB"
	default:
		value += "MiB"
	}

	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid slurm memory value %q", raw)
	}
	return float64(n), nil
}
