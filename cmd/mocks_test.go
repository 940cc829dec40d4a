package cmd

import (
	"context"
	"errors"
	"sync"

	"gitlab.com/amap/amap-dispatch/executor"
	"gitlab.com/amap/amap-dispatch/models"
)

type MockSource struct {
	cores int
	ram   float64
	err   error
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) CPUCores() (int, error) {
	return m.cores, m.err
}

func (m *MockSource) FreeMemory() (float64, error) {
	return m.ram, m.err
}

type MockExecutor struct {
	mu       sync.Mutex
	commands []string
	logs     []string
	failOn   string
}

func (m *MockExecutor) RunSafely(ctx context.Context, command, logPath, errorPath string) error {
	_, err := m.Run(ctx, command, logPath, errorPath)
	return err
}

func (m *MockExecutor) Run(ctx context.Context, command, logPath, errorPath string) (*models.CommandExecutionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, command)
	m.logs = append(m.logs, logPath, errorPath)

	record := models.NewCommandExecutionRecord(command, logPath, errorPath)
	if m.failOn != "" && command == m.failOn {
		record.ExitStatus = 1
		record.State = models.ExecutionFailedWithDiagnostics
		return record, &executor.ExecutionError{
			Command:   command,
			LogPath:   logPath,
			ErrorPath: errorPath,
			ExitCode:  1,
			Stderr:    "exit status 1\n",
			Cause:     errors.New("exit status 1"),
		}
	}
	record.ExitStatus = models.ExecutionStatusCodeSuccess
	record.State = models.ExecutionSucceeded
	return record, nil
}
