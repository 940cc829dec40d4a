package register

import (
	"fmt"
	"strings"

	"gitlab.com/amap/amap-dispatch/internal/config"
)

// Atlas is the reference volume the sample brains are aligned to.
type Atlas struct {
	// Path is the annotated (label) volume propagated to the samples.
	Path string
	// BrainPath is the atlas reference brain used for registration.
	BrainPath       string
	HemispheresPath string
	PixelSize       config.PixelSize
}

// NewAtlas builds an Atlas from its config section.
func NewAtlas(c config.Atlas) (Atlas, error) {
	a := Atlas{
		Path:            c.Path,
		BrainPath:       c.BrainPath,
		HemispheresPath: c.HemispheresPath,
		PixelSize:       c.PixelSize,
	}
	if a.Path == "" || a.BrainPath == "" {
		return a, fmt.Errorf("atlas config needs both path and brain_path")
	}
	if a.PixelSize.X <= 0 || a.PixelSize.Y <= 0 || a.PixelSize.Z <= 0 {
		return a, fmt.Errorf("atlas pixel sizes must be positive, got %+v", a.PixelSize)
	}
	return a, nil
}

// TransformationMatrix returns the 4x4 affine that scales voxel indices to
// atlas space, for writing NIfTI headers.
func (a Atlas) TransformationMatrix() [4][4]float64 {
	var m [4][4]float64
	m[0][0] = a.PixelSize.X
	m[1][1] = a.PixelSize.Y
	m[2][2] = a.PixelSize.Z
	m[3][3] = 1
	return m
}

// FormatMatrix renders a matrix as four whitespace separated rows.
func FormatMatrix(m [4][4]float64) string {
	var b strings.Builder
	for _, row := range m {
		fmt.Fprintf(&b, "%g %g %g %g\n", row[0], row[1], row[2], row[3])
	}
	return b.String()
}
