package register

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"gitlab.com/amap/amap-dispatch/executor"
	"gitlab.com/amap/amap-dispatch/utils"
)

// Files written to a brain's output directory.
const (
	AtlasFile                 = "atlas.nii"
	AtlasBrainFile            = "atlas_brain.nii"
	TransformationMatrixFile  = "transformation_matrix.txt"
	AffineMatrixFile          = "affine_matrix.txt"
	AffineRegisteredFile      = "affine_registered_atlas_brain.nii"
	ControlPointFile          = "control_point_file.nii"
	FreeformRegisteredFile    = "freeform_registered_atlas_brain.nii"
	RegisteredAtlasFile       = "registered_atlas.nii"
	RegisteredHemispheresFile = "registered_hemispheres.nii"
)

const defaultMinFreeDiskGB = 1.0

// Brain is one sample volume to register against the atlas.
type Brain struct {
	Name      string
	ImagePath string
	OutputDir string
}

// Step is one external program invocation of the pipeline.
type Step struct {
	Name      string
	Command   string
	LogPath   string
	ErrorPath string
}

// Pipeline runs affine registration, freeform registration and label
// propagation for a brain, one step after the other.
type Pipeline struct {
	params   *Params
	executor executor.Executor
	fs       afero.Fs

	// MinFreeDiskGB is the free space below which Prepare warns.
	MinFreeDiskGB float64
}

func NewPipeline(params *Params, exec executor.Executor, fs afero.Fs) *Pipeline {
	return &Pipeline{
		params:        params,
		executor:      exec,
		fs:            fs,
		MinFreeDiskGB: defaultMinFreeDiskGB,
	}
}

// Steps returns the commands that register brain, in execution order.
func (p *Pipeline) Steps(brain Brain) []Step {
	out := func(name string) string { return filepath.Join(brain.OutputDir, name) }
	step := func(name, command string) Step {
		return Step{
			Name:      name,
			Command:   command,
			LogPath:   out(name + ".log"),
			ErrorPath: out(name + ".err"),
		}
	}

	atlas := out(AtlasFile)
	atlasBrain := out(AtlasBrainFile)
	sample := brain.ImagePath

	steps := []Step{
		step("affine", joinCommand(p.params.AffineProgram, p.params.AffineParams(),
			"-flo", atlasBrain,
			"-ref", sample,
			"-aff", out(AffineMatrixFile),
			"-res", out(AffineRegisteredFile))),
		step("freeform", joinCommand(p.params.FreeformProgram, p.params.FreeformParams(),
			"-aff", out(AffineMatrixFile),
			"-flo", atlasBrain,
			"-ref", sample,
			"-cpp", out(ControlPointFile),
			"-res", out(FreeformRegisteredFile))),
		step("segmentation", joinCommand(p.params.SegmentationProgram, p.params.SegmentationParams(),
			"-cpp", out(ControlPointFile),
			"-flo", atlas,
			"-ref", sample,
			"-res", out(RegisteredAtlasFile))),
	}

	if p.params.Atlas.HemispheresPath != "" {
		steps = append(steps, step("hemispheres", joinCommand(p.params.SegmentationProgram, p.params.SegmentationParams(),
			"-cpp", out(ControlPointFile),
			"-flo", p.params.Atlas.HemispheresPath,
			"-ref", sample,
			"-res", out(RegisteredHemispheresFile))))
	}

	return steps
}

// Prepare creates the output directory and saves the atlas and its
// transformation matrix into it.
func (p *Pipeline) Prepare(brain Brain) error {
	if err := utils.EnsureDirectoryExists(p.fs, brain.OutputDir); err != nil {
		return err
	}

	if free, err := utils.DiskFreeGB(brain.OutputDir); err != nil {
		zlog.Warn("unable to check free disk space", zap.String("dir", brain.OutputDir), zap.Error(err))
	} else if free < p.MinFreeDiskGB {
		zlog.Warn("output disk is almost full", zap.String("dir", brain.OutputDir), zap.Float64("free_gb", free))
	}

	copies := []struct{ src, name string }{
		{p.params.Atlas.Path, AtlasFile},
		{p.params.Atlas.BrainPath, AtlasBrainFile},
	}
	for _, c := range copies {
		src, name := c.src, c.name
		if utils.CheckPathInDir(src, brain.OutputDir) && filepath.Base(src) == name {
			continue
		}
		if err := utils.CopyFile(p.fs, p.fs, src, filepath.Join(brain.OutputDir, name)); err != nil {
			return fmt.Errorf("unable to save atlas to %s: %w", brain.OutputDir, err)
		}
	}

	matrix := FormatMatrix(p.params.Atlas.TransformationMatrix())
	path := filepath.Join(brain.OutputDir, TransformationMatrixFile)
	if err := afero.WriteFile(p.fs, path, []byte(matrix), 0644); err != nil {
		return fmt.Errorf("unable to write transformation matrix: %w", err)
	}
	return nil
}

// Run prepares the output directory and runs every step of brain. It stops
// at the first failing step; the returned error wraps its
// *executor.ExecutionError.
func (p *Pipeline) Run(ctx context.Context, brain Brain) error {
	if err := p.Prepare(brain); err != nil {
		return err
	}

	for _, step := range p.Steps(brain) {
		zlog.Info("running registration step", zap.String("brain", brain.Name), zap.String("step", step.Name))
		if err := p.executor.RunSafely(ctx, step.Command, step.LogPath, step.ErrorPath); err != nil {
			return fmt.Errorf("%s: %s step failed: %w", brain.Name, step.Name, err)
		}
	}

	zlog.Info("registration finished", zap.String("brain", brain.Name), zap.String("output_dir", brain.OutputDir))
	return nil
}

func joinCommand(program string, params []ParamPair, args ...string) string {
	var b strings.Builder
	b.WriteString(shellEscape(program))
	b.WriteByte(' ')
	b.WriteString(FormatParamPairs(params))

	for i, arg := range args {
		if i%2 == 0 {
			// option names are never quoted
			b.WriteString(arg)
		} else {
			b.WriteString(shellEscape(arg))
		}
		if i < len(args)-1 {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func shellEscape(value string) string {
	if value == "" {
		return "''"
	}

	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}
