package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbsPath(t *testing.T) {
	assert.Equal(t, "/var/log/run.log", absPath("/var/log/run.log"))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "run.log"), absPath("run.log"))
}

func TestDefaultPathsAreNeverEmpty(t *testing.T) {
	logPath, errorPath := DefaultPaths()
	assert.NotEmpty(t, logPath)
	assert.NotEmpty(t, errorPath)
	assert.Equal(t, DefaultLogFileName, filepath.Base(logPath))
	assert.Equal(t, DefaultErrorFileName, filepath.Base(errorPath))
}
