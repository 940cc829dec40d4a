package utils

import (
	"bufio"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/facette/natsort"
	"github.com/shirou/gopsutil/disk"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrUnsupportedFileList is returned when a file list is neither a text
// file of paths nor a directory.
var ErrUnsupportedFileList = errors.New(
	"input file path is not a recognised format: expected a list of file paths, " +
		"a text file of these paths, or a directory containing image files")

// SortFilePaths returns a naturally sorted copy of paths, so that
// "plane2" sorts before "plane10".
func SortFilePaths(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	natsort.Sort(sorted)
	return sorted
}

// GetSortedFilePaths lists the files named by path in natural order. path
// is either a .txt file holding one path per line or a directory, in which
// case its entries ending in extension (all entries when empty) are listed.
func GetSortedFilePaths(fs afero.Fs, path, extension string) ([]string, error) {
	if filepath.Ext(path) == ".txt" {
		return GetTextLines(fs, path, true)
	}

	info, err := fs.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFileList)
	}

	matches, err := afero.Glob(fs, filepath.Join(path, "*"+extension))
	if err != nil {
		return nil, fmt.Errorf("unable to list %s: %w", path, err)
	}
	zlog.Debug("listed directory", zap.String("path", path), zap.Int("files", len(matches)))

	return SortFilePaths(matches), nil
}

// GetTextLines returns the non-empty lines of a text file, trimmed and
// optionally naturally sorted.
func GetTextLines(fs afero.Fs, path string, sort bool) ([]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}

	if sort {
		natsort.Sort(lines)
	}
	return lines, nil
}

// EnsureDirectoryExists creates dir and its parents when missing.
func EnsureDirectoryExists(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("unable to create directory %s: %w", dir, err)
	}
	return nil
}

// CheckPathInDir reports whether file sits directly inside dir.
func CheckPathInDir(file, dir string) bool {
	return filepath.Clean(filepath.Dir(file)) == filepath.Clean(dir)
}

// DiskFreeGB returns the free space, in GiB, of the disk holding path.
func DiskFreeGB(path string) (float64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("unable to read disk usage of %s: %w", path, err)
	}
	return float64(usage.Free) / (1 << 30), nil
}

// FileExists reports whether path exists on fs.
func FileExists(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}
