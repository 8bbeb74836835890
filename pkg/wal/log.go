package wal

import (
	"github.com/ondisk/seglog/internal/codec"
	intwal "github.com/ondisk/seglog/internal/wal"
)

// Log is a directory-backed, segmented write-ahead log. See Open.
type Log = intwal.Log

// Batch is a transient, caller-assembled sequence of entries appended atomically via WriteBatch.
type Batch = intwal.Batch

// Format selects the on-disk framing used for entries in a log.
type Format = codec.Format

const (
	// Binary frames an entry as varint(len) || payload.
	Binary = codec.Binary
	// JSON frames an entry as one `{"index":"...","data":"..."}` line per entry.
	JSON = codec.JSON
)

// Option configures a Log at Open time.
type Option = intwal.Option

// Config is a snapshot of an open Log's resolved configuration. See Log.Config.
type Config = intwal.Config

// SegmentInfo describes one on-disk segment file. See Log.Segments.
type SegmentInfo = intwal.SegmentInfo

// Open opens the write-ahead log stored in directory, creating it if it does not yet exist.
var Open = intwal.Open

// WithNoSync disables the durable flush that otherwise follows every successful write.
var WithNoSync = intwal.WithNoSync

// WithSegmentSize overwrites the default soft threshold that triggers a segment cycle.
var WithSegmentSize = intwal.WithSegmentSize

// WithLogFormat overwrites the default entry framing.
var WithLogFormat = intwal.WithLogFormat

// WithSegmentCacheSize overwrites the default number of cold segments kept cached.
var WithSegmentCacheSize = intwal.WithSegmentCacheSize

// WithNoCopy allows Read to return a binary-format payload aliasing the cached segment buffer.
var WithNoCopy = intwal.WithNoCopy

// WithDirPerms overwrites the default permission mode for the log directory.
var WithDirPerms = intwal.WithDirPerms

// WithFilePerms overwrites the default permission mode for segment files.
var WithFilePerms = intwal.WithFilePerms
