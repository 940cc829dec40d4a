package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/amap/amap-dispatch/executor"
)

func Test_ExecCmdJoinsArguments(t *testing.T) {
	mockExec := &MockExecutor{}
	buf := new(bytes.Buffer)

	cmd := NewExecCmd(mockExec)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--log=/tmp/x.log", "--err=/tmp/x.err", "--", "echo", "hello", "world"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, []string{"echo hello world"}, mockExec.commands)
	assert.Equal(t, []string{"/tmp/x.log", "/tmp/x.err"}, mockExec.logs)
	assert.Contains(t, buf.String(), "Command finished with status 0")
	assert.Contains(t, buf.String(), "/tmp/x.log")
}

func Test_ExecCmdDefaultPaths(t *testing.T) {
	mockExec := &MockExecutor{}
	cmd := NewExecCmd(mockExec)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"true"})

	require.NoError(t, cmd.Execute())
	logPath, errorPath := executor.DefaultPaths()
	assert.Equal(t, []string{logPath, errorPath}, mockExec.logs)
}

func Test_ExecCmdFailure(t *testing.T) {
	mockExec := &MockExecutor{failOn: "false"}
	buf := new(bytes.Buffer)
	cmd := NewExecCmd(mockExec)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"false"})

	err := cmd.Execute()
	assert.True(t, executor.IsExecutionError(err))
	assert.ErrorContains(t, err, "command: false")
	assert.ErrorContains(t, err, "exit status 1")
	assert.NotContains(t, buf.String(), "Command finished")
}

func Test_ExecCmdRequiresCommand(t *testing.T) {
	cmd := NewExecCmd(&MockExecutor{})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{})

	assert.Error(t, cmd.Execute())
}
