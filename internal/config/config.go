package config

type Config struct {
	General      `mapstructure:"general"`
	Resources    `mapstructure:"resources"`
	Registration `mapstructure:"registration"`
	Atlas        `mapstructure:"atlas"`
}

type General struct {
	DataDir string `mapstructure:"data_dir"`
	LogDir  string `mapstructure:"log_dir"` // per-command .log/.err files of batch runs
	Debug   bool   `mapstructure:"debug"`
}

// Resources holds the defaults used to size worker pools. Zero values of
// the optional fields mean "not set".
type Resources struct {
	MinFreeCPUCores     int     `mapstructure:"min_free_cpu_cores"`
	FractionFreeRAM     float64 `mapstructure:"fraction_free_ram"`
	RAMNeededPerProcess float64 `mapstructure:"ram_needed_per_process"` // bytes
	MaxProcesses        int     `mapstructure:"n_max_processes"`
	MaxRAMUsage         float64 `mapstructure:"max_ram_usage"` // bytes
}

type Registration struct {
	BinariesPath string `mapstructure:"binaries_path"`

	AffineSteps        int     `mapstructure:"affine_n_steps"`
	AffineUseSteps     int     `mapstructure:"affine_use_n_steps"`
	FreeformSteps      int     `mapstructure:"freeform_n_steps"`
	FreeformUseSteps   int     `mapstructure:"freeform_use_n_steps"`
	BendingEnergy      float64 `mapstructure:"bending_energy_weight"`
	GridSpacingX       int     `mapstructure:"grid_spacing_x"`
	SmoothingReference float64 `mapstructure:"smoothing_sigma_reference"`
	SmoothingFloating  float64 `mapstructure:"smoothing_sigma_floating"`
	HistogramBinsRef   int     `mapstructure:"histogram_n_bins_reference"`
	HistogramBinsFloat int     `mapstructure:"histogram_n_bins_floating"`
}

type Atlas struct {
	Path            string    `mapstructure:"path"`
	BrainPath       string    `mapstructure:"brain_path"`
	HemispheresPath string    `mapstructure:"hemispheres_path"`
	PixelSize       PixelSize `mapstructure:"pixel_size"`
}

// PixelSize is the atlas voxel size in micrometres.
type PixelSize struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	Z float64 `mapstructure:"z"`
}
