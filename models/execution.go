package models

// ExecutionState is the lifecycle phase of a single safe command invocation.
type ExecutionState string

const (
	ExecutionNotStarted                    ExecutionState = "not_started"
	ExecutionRunning                       ExecutionState = "running"
	ExecutionSucceeded                     ExecutionState = "succeeded"
	ExecutionFailedWithDiagnostics         ExecutionState = "failed_with_diagnostics"
	ExecutionFailedWithDegradedDiagnostics ExecutionState = "failed_with_degraded_diagnostics"
)

const (
	ExecutionStatusCodeSuccess = 0
	// ExecutionStatusCodeUnknown is used when the command never produced an exit status.
	ExecutionStatusCodeUnknown = -1
)

// CommandExecutionRecord tracks one external command from start to finish.
// The log files it points at outlive the record.
type CommandExecutionRecord struct {
	Command    string         `json:"command"`
	LogPath    string         `json:"log_path"`   // captured stdout
	ErrorPath  string         `json:"error_path"` // captured stderr
	ExitStatus int            `json:"exit_status"`
	State      ExecutionState `json:"state"`
}

// NewCommandExecutionRecord creates a record in the NotStarted state.
func NewCommandExecutionRecord(command, logPath, errorPath string) *CommandExecutionRecord {
	return &CommandExecutionRecord{
		Command:    command,
		LogPath:    logPath,
		ErrorPath:  errorPath,
		ExitStatus: ExecutionStatusCodeUnknown,
		State:      ExecutionNotStarted,
	}
}

// Terminal reports whether the record reached one of its final states.
func (r *CommandExecutionRecord) Terminal() bool {
	switch r.State {
	case ExecutionSucceeded, ExecutionFailedWithDiagnostics, ExecutionFailedWithDegradedDiagnostics:
		return true
	}
	return false
}
