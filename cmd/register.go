package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/amap/amap-dispatch/batch"
	"gitlab.com/amap/amap-dispatch/executor"
	"gitlab.com/amap/amap-dispatch/internal/config"
	"gitlab.com/amap/amap-dispatch/register"
	"gitlab.com/amap/amap-dispatch/resources"
	"gitlab.com/amap/amap-dispatch/utils"
)

func NewRegisterCmd(fs afero.Fs, source resources.Source, exec executor.Executor) *cobra.Command {
	var outputDir string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "register <brain.nii|directory|list.txt>...",
		Short: "Register sample brains to the atlas",
		Long:  `Run NiftyReg affine and freeform registration of the atlas to each sample brain and propagate its labels, running as many brains in parallel as the available resources allow`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				return fmt.Errorf("--output-dir must be specified")
			}

			cfg := config.GetConfig()
			atlas, err := register.NewAtlas(cfg.Atlas)
			if err != nil {
				return err
			}
			params, err := register.NewParams(fs, cfg.Registration, atlas)
			if err != nil {
				return err
			}
			pipeline := register.NewPipeline(params, exec, fs)

			brains, err := collectBrains(fs, args, outputDir)
			if err != nil {
				return err
			}

			if dryRun {
				for _, brain := range brains {
					fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", brain.Name)
					for _, step := range pipeline.Steps(brain) {
						fmt.Fprintln(cmd.OutOrStdout(), step.Command)
					}
				}
				return nil
			}

			q, err := resourceQuery(cmd, cfg.Resources)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			jobs := make([]batch.Job, len(brains))
			for i, brain := range brains {
				brain := brain
				jobs[i] = batch.Job{
					Name: brain.Name,
					Task: func(ctx context.Context) error { return pipeline.Run(ctx, brain) },
				}
			}

			dispatcher := batch.NewDispatcher(resources.NewEstimator(source), exec, q, cfg.General.LogDir)
			results, runErr := dispatcher.Run(ctx, jobs)
			if len(results) > 0 {
				table := setupTable(cmd.OutOrStdout())
				table.SetHeader([]string{"Brain", "Status", "Duration"})
				for _, r := range results {
					status := "done"
					if r.Err != nil {
						status = "failed"
					}
					table.Append([]string{r.Job.Name, status, r.Duration.Round(time.Second).String()})
				}
				table.Render()
			}
			if runErr != nil {
				zlog.Error("registration failed", zap.Error(runErr))
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory receiving one sub-directory per brain")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the commands without running them")
	addResourceFlags(cmd)
	return cmd
}

// collectBrains expands each argument, a NIfTI file, a directory of them or
// a text file listing them, into the brains to register.
func collectBrains(fs afero.Fs, args []string, outputDir string) ([]register.Brain, error) {
	var brains []register.Brain
	seen := map[string]bool{}

	for _, arg := range args {
		paths := []string{arg}
		if isDir, _ := afero.IsDir(fs, arg); isDir || filepath.Ext(arg) == ".txt" {
			listed, err := utils.GetSortedFilePaths(fs, arg, ".nii")
			if err != nil {
				return nil, err
			}
			paths = listed
		}

		for _, path := range paths {
			if !utils.FileExists(fs, path) {
				return nil, fmt.Errorf("brain image %s does not exist", path)
			}
			name := brainName(path)
			if seen[name] {
				return nil, fmt.Errorf("two brains are named %q; output directories would collide", name)
			}
			seen[name] = true
			brains = append(brains, register.Brain{
				Name:      name,
				ImagePath: path,
				OutputDir: filepath.Join(outputDir, name),
			})
		}
	}

	if len(brains) == 0 {
		return nil, fmt.Errorf("no brains found in %s", strings.Join(args, ", "))
	}
	return brains, nil
}

func brainName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".nii"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
