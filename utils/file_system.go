package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

// GetDirectorySize returns the total size in bytes of the regular files
// under path.
func GetDirectorySize(fs afero.Fs, path string) (int64, error) {
	var size int64
	err := afero.Walk(fs, path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to calculate directory size: %w", err)
	}

	return size, nil
}

// GetFilesSize returns the summed size in bytes of the given files.
func GetFilesSize(fs afero.Fs, paths []string) (int64, error) {
	var size int64
	for _, path := range paths {
		s, err := GetDirectorySize(fs, path)
		if err != nil {
			return 0, err
		}
		size += s
	}
	return size, nil
}

// CopyFile copies file from an afero FS to another afero FS. It's useful when
// testing with in-memory file systems.
func CopyFile(srcFs afero.Fs, dstFs afero.Fs, srcPath string, dstPath string) error {
	srcFile, err := srcFs.Open(srcPath)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := dstFs.Create(dstPath)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
