package wal

import intwal "github.com/ondisk/seglog/internal/wal"

// GetSegments returns the starting indices of every segment file recognized in directory,
// sorted ascending.
var GetSegments = intwal.GetSegments
