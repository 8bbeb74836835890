package wal

import intwal "github.com/ondisk/seglog/internal/wal"

// Sentinel errors identifying the kind of failure a caller observed. Use errors.Is to test.
var (
	ErrCorrupt    = intwal.ErrCorrupt
	ErrClosed     = intwal.ErrClosed
	ErrNotFound   = intwal.ErrNotFound
	ErrOutOfOrder = intwal.ErrOutOfOrder
	ErrOutOfRange = intwal.ErrOutOfRange
	ErrInvalid    = intwal.ErrInvalid
	ErrIOError    = intwal.ErrIOError
)
