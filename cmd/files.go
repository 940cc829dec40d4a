package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"gitlab.com/amap/amap-dispatch/utils"
)

func NewFilesCmd(fs afero.Fs) *cobra.Command {
	var extension string
	var showSize bool

	cmd := &cobra.Command{
		Use:   "files <directory|list.txt>",
		Short: "List image files in natural order",
		Long:  `List the files of a directory, or the paths in a text file, sorted so that plane2 comes before plane10`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := utils.GetSortedFilePaths(fs, args[0], extension)
			if err != nil {
				return err
			}

			for _, path := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}

			if showSize {
				size, err := utils.GetFilesSize(fs, paths)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d files, %s\n", len(paths), humanize.IBytes(uint64(size)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&extension, "ext", "x", "", "only list directory entries with this extension, e.g. .nii")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "print the total size of the files")
	return cmd
}
