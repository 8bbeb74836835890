package wal

import (
	"fmt"
	"os"
	"slices"

	"github.com/ondisk/seglog/internal/naming"
)

// GetSegments returns the starting indices of every segment file recognized in directory
// (including unreconciled .START/.END markers left by an interrupted truncation), sorted
// ascending. Used by the CLI to decide whether a directory already holds a log.
func GetSegments(directory string) ([]uint64, error) {
	dirEntries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("%w: reading directory %q: %w", ErrIOError, directory, err)
	}

	result := make([]uint64, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		index, _, ok := naming.Parse(dirEntry.Name())
		if !ok {
			continue
		}
		result = append(result, index)
	}
	slices.Sort(result)
	return result, nil
}

// IsInitialized reports if there is already a write-ahead log available in the given directory.
func IsInitialized(directory string) (bool, error) {
	segments, err := GetSegments(directory)
	if err != nil {
		return false, err
	}
	return len(segments) > 0, nil
}

// Init initializes a new, empty write-ahead log in the given directory, then closes it.
func Init(directory string, opts ...Option) error {
	l, err := Open(directory, opts...)
	if err != nil {
		return err
	}
	return l.Close()
}

// InitIfRequired initializes the write-ahead log if it is not yet initialized.
func InitIfRequired(directory string, opts ...Option) error {
	initialized, err := IsInitialized(directory)
	if err != nil {
		return err
	}
	if initialized {
		return nil
	}
	return Init(directory, opts...)
}
