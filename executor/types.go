package executor

import (
	"context"

	"gitlab.com/amap/amap-dispatch/models"
)

// Executor runs external commands with their output captured to files.
type Executor interface {
	// RunSafely runs command and blocks until it exits. Its stdout is written
	// to logPath and its stderr to errorPath, both truncated first; empty
	// paths select the shared defaults in the system temp directory.
	// A non-zero exit returns an *ExecutionError carrying both logs.
	RunSafely(ctx context.Context, command, logPath, errorPath string) error

	// Run is RunSafely that also returns the execution record.
	Run(ctx context.Context, command, logPath, errorPath string) (*models.CommandExecutionRecord, error)
}
