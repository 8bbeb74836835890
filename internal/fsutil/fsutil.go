// Package fsutil holds the small set of filesystem primitives the log's truncation protocols rely
// on for crash safety: writing a replacement segment to a scratch file and committing it with a
// rename, and fsyncing a directory so the rename itself survives a crash.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrIOError is returned when an underlying filesystem call fails. Callers outside this package
// wrap it again with their own io-error sentinel, the same way codec.ErrCorrupt is re-wrapped by
// wal.ErrCorrupt, so errors.Is succeeds against either sentinel.
var ErrIOError = errors.New("fsutil: io error")

// WriteTempFile writes data to the file called name inside dir (the log passes "TEMP"), replacing
// any existing scratch file, and returns the path written. The caller commits the write by renaming this path into place; until
// that rename happens, a crash leaves at most a stale TEMP file behind, which every directory load
// ignores.
func WriteTempFile(dir string, name string, data []byte, perm os.FileMode) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return "", fmt.Errorf("%w: creating temp file %q: %w", ErrIOError, path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: writing temp file %q: %w", ErrIOError, path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: syncing temp file %q: %w", ErrIOError, path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: closing temp file %q: %w", ErrIOError, path, err)
	}
	return path, nil
}

// Rename renames oldPath to newPath. Both paths must be closed by the caller first: every rename
// in the truncation protocols happens after the file in question has already been closed, so no
// platform-specific open-handle-rename handling is needed here.
func Rename(oldPath string, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("%w: renaming %q to %q: %w", ErrIOError, oldPath, newPath, err)
	}
	return nil
}

// SyncDir fsyncs a directory so that renames and unlinks performed inside it are durable. Needed
// on POSIX filesystems, where a rename can be reordered before a crash unless the containing
// directory is explicitly synced.
func SyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("%w: opening directory %q for sync: %w", ErrIOError, dir, err)
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: syncing directory %q: %w", ErrIOError, dir, err)
	}
	return nil
}
