package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"srtmerge/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Path    string
	Passed  bool
	Missing bool
	Detail  string
}

// Input names one file a command is about to read.
type Input struct {
	Name string
	Path string
}

// RunAll checks every input for readability and the output location for
// writability. Empty input paths are skipped; an empty output is skipped too.
func RunAll(inputs []Input, output string) []Result {
	results := make([]Result, 0, len(inputs)+1)
	for _, input := range inputs {
		if input.Path == "" {
			continue
		}
		results = append(results, CheckReadableFile(input.Name, input.Path))
	}
	if output != "" {
		results = append(results, CheckOutputPath("Output", output))
	}
	return results
}

// Err converts the first failed result into a classified error, or returns nil.
func Err(results []Result) error {
	for _, result := range results {
		if result.Passed {
			continue
		}
		marker := services.ErrValidation
		if result.Missing {
			marker = services.ErrNotFound
		}
		return services.Wrap(marker, "preflight", result.Name, result.Detail, nil)
	}
	return nil
}

// CheckReadableFile verifies that path is a regular file the process can read.
func CheckReadableFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Path: path, Missing: true, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Path: path, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Path: path, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Path: path, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Path: path, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckDirectoryAccess verifies that the directory exists and is writable and
// searchable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Path: path, Missing: true, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Path: path, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Path: path, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Path: path, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Path: path, Passed: true, Detail: fmt.Sprintf("%s (write ok)", path)}
}

// CheckOutputPath verifies that path can be created or replaced: its parent
// directory must be writable and path itself must not be a directory.
func CheckOutputPath(name, path string) Result {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return Result{Name: name, Path: path, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	dir := filepath.Dir(path)
	result := CheckDirectoryAccess(name, dir)
	result.Path = path
	if result.Passed {
		result.Detail = fmt.Sprintf("%s (write ok)", path)
	}
	return result
}
