package analyzer

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrInvalidOptions is returned by constructors when the options cannot be used.
var ErrInvalidOptions = errors.New("analyzer: invalid options")

// IOError reports a file that could not be read or inspected.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ErrInvalidPaths is returned when the caller's path list cannot be analyzed.
var ErrInvalidPaths = errors.New("analyzer: invalid path list")

// CheckPaths rejects empty or relative entries; analyzers expect the
// absolute paths a project scanner produces.
func CheckPaths(paths []string) error {
	for i, p := range paths {
		if p == "" {
			return fmt.Errorf("%w: entry %d is empty", ErrInvalidPaths, i)
		}
		if !filepath.IsAbs(p) {
			return fmt.Errorf("%w: %q is not absolute", ErrInvalidPaths, p)
		}
	}
	return nil
}
