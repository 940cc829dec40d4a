package register

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/amap/amap-dispatch/internal/config"
)

const binDir = "/opt/niftyreg/bin"

func defaultRegistration() config.Registration {
	return config.Registration{
		BinariesPath:       binDir,
		AffineSteps:        6,
		AffineUseSteps:     5,
		FreeformSteps:      6,
		FreeformUseSteps:   4,
		BendingEnergy:      0.95,
		GridSpacingX:       -10,
		SmoothingReference: -1.0,
		SmoothingFloating:  -1.0,
		HistogramBinsRef:   128,
		HistogramBinsFloat: 128,
	}
}

func testAtlas() Atlas {
	return Atlas{
		Path:            "/atlas/annotations.nii",
		BrainPath:       "/atlas/brain.nii",
		HemispheresPath: "/atlas/hemispheres.nii",
		PixelSize:       config.PixelSize{X: 10, Y: 10, Z: 10},
	}
}

func binariesFs(t *testing.T, perm os.FileMode) afero.Fs {
	fs := afero.NewMemMapFs()
	for _, prog := range []string{ProgramAffine, ProgramFreeform, ProgramSegmentation, ProgramTransform} {
		path := filepath.Join(binDir, prog)
		require.NoError(t, afero.WriteFile(fs, path, []byte("#!/bin/sh\n"), perm))
		require.NoError(t, fs.Chmod(path, perm))
	}
	return fs
}

func TestFormatParamPairs(t *testing.T) {
	pairs := []ParamPair{{"-sx", "10"}, {"-be", "0.5"}}
	assert.Equal(t, "-sx 10 -be 0.5 ", FormatParamPairs(pairs))
	assert.Equal(t, "", FormatParamPairs(nil))
}

func TestNewParams(t *testing.T) {
	p, err := NewParams(binariesFs(t, 0755), defaultRegistration(), testAtlas())
	require.NoError(t, err)

	assert.Equal(t, binDir+"/reg_aladin", p.AffineProgram)
	assert.Equal(t, binDir+"/reg_f3d", p.FreeformProgram)
	assert.Equal(t, binDir+"/reg_resample", p.SegmentationProgram)
	assert.Equal(t, binDir+"/reg_transform", p.TransformProgram)

	assert.Equal(t, "-ln 6 -lp 5 ", p.FormatAffineParams())
	assert.Equal(t, "-ln 6 -lp 4 -sx -10 -be 0.95 -smooR -1 -smooF -1 --rbn 128 --fbn 128 ", p.FormatFreeformParams())
	assert.Equal(t, "-inter 0 ", p.FormatSegmentationParams())
}

func TestNewParamsMissingBinary(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := NewParams(fs, defaultRegistration(), testAtlas())
	assert.ErrorIs(t, err, ErrBinaryNotFound)
}

func TestNewParamsNotExecutable(t *testing.T) {
	_, err := NewParams(binariesFs(t, 0644), defaultRegistration(), testAtlas())
	assert.ErrorIs(t, err, ErrBinaryNotFound)
	assert.Contains(t, err.Error(), "not executable")
}
