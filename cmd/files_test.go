package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/amap/amap-dispatch/utils"
)

func planesFs(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"plane10.tif", "plane2.tif", "plane1.tif", "notes.md"} {
		require.NoError(t, afero.WriteFile(fs, "/data/brain1/"+name, []byte("1234"), 0644))
	}
	return fs
}

func Test_FilesCmdNaturalOrder(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := NewFilesCmd(planesFs(t))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--ext=.tif", "--size", "/data/brain1"})

	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"/data/brain1/plane1.tif",
		"/data/brain1/plane2.tif",
		"/data/brain1/plane10.tif",
		"3 files, 12 B",
	}, lines)
}

func Test_FilesCmdTextList(t *testing.T) {
	fs := planesFs(t)
	require.NoError(t, afero.WriteFile(fs, "/data/list.txt", []byte("b10.nii\n\n  b9.nii\n"), 0644))

	buf := new(bytes.Buffer)
	cmd := NewFilesCmd(fs)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/data/list.txt"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "b9.nii\nb10.nii\n", buf.String())
}

func Test_FilesCmdUnsupportedInput(t *testing.T) {
	cmd := NewFilesCmd(planesFs(t))
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"/data/brain1/plane1.tif"})

	assert.ErrorIs(t, cmd.Execute(), utils.ErrUnsupportedFileList)
}
