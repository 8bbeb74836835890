package wal

import "errors"

// Sentinel errors identifying the kind of failure a caller observed. Use errors.Is to test for
// one of these; internal code wraps them with fmt.Errorf("...: %w", ...) to add context without
// losing the kind.
var (
	// ErrCorrupt is returned once the log has observed an on-disk state it cannot trust, and from
	// every subsequent operation until the log is closed and reopened.
	ErrCorrupt = errors.New("wal: corrupt")

	// ErrClosed is returned by any operation other than Close on a log that has already been
	// closed.
	ErrClosed = errors.New("wal: closed")

	// ErrNotFound is returned by Read for an index outside [FirstIndex, LastIndex], including 0.
	ErrNotFound = errors.New("wal: not found")

	// ErrOutOfOrder is returned by Write/WriteBatch when the batch's indices are not exactly
	// LastIndex()+1, LastIndex()+2, and so on.
	ErrOutOfOrder = errors.New("wal: out of order")

	// ErrOutOfRange is returned by TruncateFront/TruncateBack when index falls outside
	// [FirstIndex, LastIndex], including on an empty log.
	ErrOutOfRange = errors.New("wal: out of range")

	// ErrInvalid is returned for bad configuration, including the reserved ":memory:" path.
	ErrInvalid = errors.New("wal: invalid")

	// ErrIOError is returned when an underlying filesystem call (open, read, write, rename,
	// remove, sync) fails. It wraps whatever fsutil or the standard library reported.
	ErrIOError = errors.New("wal: io error")
)
