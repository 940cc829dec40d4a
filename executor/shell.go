package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"gitlab.com/amap/amap-dispatch/models"
)

const (
	DefaultLogFileName   = "safe_execute_command.log"
	DefaultErrorFileName = "safe_execute_command.err"
	DefaultShell         = "/bin/sh"
)

// DefaultPaths returns the log and error files used when a caller gives
// none. They are shared by every such call: concurrent callers must pass
// their own paths.
func DefaultPaths() (logPath, errorPath string) {
	tmp := os.TempDir()
	return absPath(filepath.Join(tmp, DefaultLogFileName)), absPath(filepath.Join(tmp, DefaultErrorFileName))
}

// absPath returns path made absolute, or path itself when the working
// directory cannot be determined.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// ShellExecutor runs commands through a shell. The zero value is not
// usable; build one with NewShellExecutor.
type ShellExecutor struct {
	fs      afero.Fs
	shell   string
	timeout time.Duration
}

type Option func(*ShellExecutor)

// WithFs sets the filesystem the output files are written to and read
// back from.
func WithFs(fs afero.Fs) Option {
	return func(e *ShellExecutor) { e.fs = fs }
}

func WithShell(shell string) Option {
	return func(e *ShellExecutor) { e.shell = shell }
}

// WithTimeout bounds every command. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(e *ShellExecutor) { e.timeout = d }
}

func NewShellExecutor(opts ...Option) *ShellExecutor {
	e := &ShellExecutor{
		fs:    afero.NewOsFs(),
		shell: DefaultShell,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExecutor Executor = NewShellExecutor()

// RunSafely runs command with the default shell executor.
func RunSafely(ctx context.Context, command, logPath, errorPath string) error {
	return defaultExecutor.RunSafely(ctx, command, logPath, errorPath)
}

func (e *ShellExecutor) RunSafely(ctx context.Context, command, logPath, errorPath string) error {
	_, err := e.Run(ctx, command, logPath, errorPath)
	return err
}

func (e *ShellExecutor) Run(ctx context.Context, command, logPath, errorPath string) (*models.CommandExecutionRecord, error) {
	defaultLog, defaultErr := DefaultPaths()
	if logPath == "" {
		logPath = defaultLog
	}
	if errorPath == "" {
		errorPath = defaultErr
	}

	record := models.NewCommandExecutionRecord(command, logPath, errorPath)
	zlog.Debug("running command",
		zap.String("command", command),
		zap.String("log_path", logPath),
		zap.String("error_path", errorPath))

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	runErr, fileErr := e.capture(ctx, record)
	if runErr == nil {
		if fileErr != nil {
			return record, fmt.Errorf("command output files: %w", fileErr)
		}
		record.State = models.ExecutionSucceeded
		zlog.Debug("command succeeded", zap.String("command", command), zap.Duration("took", time.Since(start)))
		return record, nil
	}
	if fileErr != nil {
		zlog.Warn("unable to close command output files", zap.Error(fileErr))
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		runErr = fmt.Errorf("%w: %v", ctxErr, runErr)
	}
	execErr := e.diagnose(record, runErr)
	zlog.Error("command failed",
		zap.String("command", command),
		zap.Int("exit_status", record.ExitStatus),
		zap.Bool("degraded", execErr.Degraded),
		zap.Duration("took", time.Since(start)))
	return record, execErr
}

// capture runs the command with stdout and stderr redirected to the
// record's files. fileErr holds failures to open or close them; when the
// files cannot be opened the command is not started.
func (e *ShellExecutor) capture(ctx context.Context, record *models.CommandExecutionRecord) (runErr, fileErr error) {
	logFile, err := e.create(record.LogPath)
	if err != nil {
		return nil, err
	}
	defer func() { fileErr = multierr.Append(fileErr, logFile.Close()) }()

	errFile, err := e.create(record.ErrorPath)
	if err != nil {
		return nil, err
	}
	defer func() { fileErr = multierr.Append(fileErr, errFile.Close()) }()

	cmd := exec.CommandContext(ctx, e.shell, "-c", record.Command)
	cmd.Stdout = logFile
	cmd.Stderr = errFile

	record.State = models.ExecutionRunning
	runErr = cmd.Run()
	if cmd.ProcessState != nil {
		record.ExitStatus = cmd.ProcessState.ExitCode()
	}
	return runErr, nil
}

func (e *ShellExecutor) create(path string) (afero.File, error) {
	f, err := e.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s for writing: %w", path, err)
	}
	return f, nil
}

// diagnose reads both output files back into an ExecutionError. If either
// cannot be read the error is degraded to paths and command only.
func (e *ShellExecutor) diagnose(record *models.CommandExecutionRecord, cause error) *ExecutionError {
	execErr := &ExecutionError{
		Command:   record.Command,
		LogPath:   record.LogPath,
		ErrorPath: record.ErrorPath,
		ExitCode:  record.ExitStatus,
		Cause:     cause,
	}

	stderr, errRead := afero.ReadFile(e.fs, record.ErrorPath)
	stdout, logRead := afero.ReadFile(e.fs, record.LogPath)
	if readErr := multierr.Combine(errRead, logRead); readErr != nil {
		execErr.Degraded = true
		execErr.ReadErr = readErr
		record.State = models.ExecutionFailedWithDegradedDiagnostics
		return execErr
	}

	execErr.Stderr = string(stderr)
	execErr.Stdout = string(stdout)
	record.State = models.ExecutionFailedWithDiagnostics
	return execErr
}
