package register

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"gitlab.com/amap/amap-dispatch/internal/config"
)

// NiftyReg program names.
const (
	ProgramAffine       = "reg_aladin"
	ProgramFreeform     = "reg_f3d"
	ProgramSegmentation = "reg_resample"
	ProgramTransform    = "reg_transform"
)

var ErrBinaryNotFound = errors.New("registration binary not found")

// ParamPair is a command line option and its value, e.g. {"-sx", "10"}.
type ParamPair struct {
	Option string
	Value  string
}

func intPair(option string, v int) ParamPair {
	return ParamPair{Option: option, Value: strconv.Itoa(v)}
}

func floatPair(option string, v float64) ParamPair {
	return ParamPair{Option: option, Value: strconv.FormatFloat(v, 'f', -1, 64)}
}

// FormatParamPairs joins pairs as "option value " for every pair.
func FormatParamPairs(pairs []ParamPair) string {
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "%s %s ", p.Option, p.Value)
	}
	return b.String()
}

// Params holds the program paths and options of every registration step.
type Params struct {
	AffineProgram       string
	FreeformProgram     string
	SegmentationProgram string
	TransformProgram    string

	// affine (reg_aladin)
	AffinePyramidSteps     ParamPair
	AffineUsedPyramidSteps ParamPair

	// freeform (reg_f3d)
	FreeformPyramidSteps     ParamPair
	FreeformUsedPyramidSteps ParamPair
	FreeformGridSpacingX     ParamPair
	BendingEnergyWeight      ParamPair
	ReferenceSmoothingSigma  ParamPair
	FloatingSmoothingSigma   ParamPair
	ReferenceHistogramBins   ParamPair
	FloatingHistogramBins    ParamPair

	// segmentation (reg_resample)
	SegmentationInterpolation ParamPair

	Atlas Atlas
}

// NewParams resolves the NiftyReg programs under c.BinariesPath and builds
// the step options from c.
func NewParams(fs afero.Fs, c config.Registration, atlas Atlas) (*Params, error) {
	p := &Params{
		AffinePyramidSteps:     intPair("-ln", c.AffineSteps),
		AffineUsedPyramidSteps: intPair("-lp", c.AffineUseSteps),

		FreeformPyramidSteps:     intPair("-ln", c.FreeformSteps),
		FreeformUsedPyramidSteps: intPair("-lp", c.FreeformUseSteps),
		FreeformGridSpacingX:     intPair("-sx", c.GridSpacingX),
		BendingEnergyWeight:      floatPair("-be", c.BendingEnergy),
		ReferenceSmoothingSigma:  floatPair("-smooR", c.SmoothingReference),
		FloatingSmoothingSigma:   floatPair("-smooF", c.SmoothingFloating),
		ReferenceHistogramBins:   intPair("--rbn", c.HistogramBinsRef),
		FloatingHistogramBins:    intPair("--fbn", c.HistogramBinsFloat),

		SegmentationInterpolation: intPair("-inter", 0),

		Atlas: atlas,
	}

	programs := []struct {
		name string
		dst  *string
	}{
		{ProgramAffine, &p.AffineProgram},
		{ProgramFreeform, &p.FreeformProgram},
		{ProgramSegmentation, &p.SegmentationProgram},
		{ProgramTransform, &p.TransformProgram},
	}
	for _, prog := range programs {
		path, err := getBinary(fs, c.BinariesPath, prog.name)
		if err != nil {
			return nil, err
		}
		*prog.dst = path
	}

	return p, nil
}

// getBinary returns the path of program inside dir when it exists and is
// executable.
func getBinary(fs afero.Fs, dir, program string) (string, error) {
	path := filepath.Join(dir, program)
	info, err := fs.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBinaryNotFound, path, err)
	}
	if info.IsDir() || info.Mode().Perm()&0111 == 0 {
		return "", fmt.Errorf("%w: %s is not executable", ErrBinaryNotFound, path)
	}
	return path, nil
}

func (p *Params) AffineParams() []ParamPair {
	return []ParamPair{p.AffinePyramidSteps, p.AffineUsedPyramidSteps}
}

func (p *Params) FreeformParams() []ParamPair {
	return []ParamPair{
		p.FreeformPyramidSteps,
		p.FreeformUsedPyramidSteps,
		p.FreeformGridSpacingX,
		p.BendingEnergyWeight,
		p.ReferenceSmoothingSigma,
		p.FloatingSmoothingSigma,
		p.ReferenceHistogramBins,
		p.FloatingHistogramBins,
	}
}

func (p *Params) SegmentationParams() []ParamPair {
	return []ParamPair{p.SegmentationInterpolation}
}

func (p *Params) FormatAffineParams() string {
	return FormatParamPairs(p.AffineParams())
}

func (p *Params) FormatFreeformParams() string {
	return FormatParamPairs(p.FreeformParams())
}

func (p *Params) FormatSegmentationParams() string {
	return FormatParamPairs(p.SegmentationParams())
}
