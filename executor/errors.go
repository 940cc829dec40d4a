package executor

import (
	"errors"
	"fmt"
	"strings"
)

const hline = "-------------------------"

// ExecutionError is returned when a command exits with a non-zero status.
// It embeds the captured output so the failure can be diagnosed without
// running the command again. When the output files could not be read back
// Degraded is set and ReadErr holds the reason.
type ExecutionError struct {
	Command   string
	LogPath   string
	ErrorPath string
	ExitCode  int
	Stdout    string
	Stderr    string
	Degraded  bool
	Cause     error
	ReadErr   error
}

func (e *ExecutionError) Error() string {
	if e.Degraded {
		return fmt.Sprintf("Process failed: please read the logs at %s and %s; command: %s; err: %v",
			e.LogPath, e.ErrorPath, e.Command, e.ReadErr)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nProcess failed:\n %s", hline, e.Stderr)
	fmt.Fprintf(&b, "%s\n%s\n%s\n", hline, e.Stdout, hline)
	fmt.Fprintf(&b, "please read the logs at %s and %s\n%s\n", e.LogPath, e.ErrorPath, hline)
	fmt.Fprintf(&b, "command: %s\n%s", e.Command, hline)
	return b.String()
}

func (e *ExecutionError) Unwrap() []error {
	var errs []error
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.ReadErr != nil {
		errs = append(errs, e.ReadErr)
	}
	return errs
}

// IsExecutionError reports whether err is or wraps an *ExecutionError.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError
	return errors.As(err, &execErr)
}
