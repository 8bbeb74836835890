package wal

import (
	"github.com/ondisk/seglog/internal/codec"
)

// Defaults mirrored by defaultOptions below and by Option functions that clamp out-of-range
// input back to a sane value instead of propagating it.
const (
	DefaultSegmentSize      = 20 * 1024 * 1024
	DefaultSegmentCacheSize = 2
	DefaultDirPerms         = 0o750
	DefaultFilePerms        = 0o640
)

// Options configures an open Log. Build one with Open's functional options rather than
// constructing it directly; the zero value is not valid.
type Options struct {
	noSync           bool
	segmentSize      int64
	logFormat        codec.Format
	segmentCacheSize int
	noCopy           bool
	dirPerms         uint32
	filePerms        uint32
}

// defaultOptions returns the baseline every Open call starts from before applying the caller's
// Option values.
func defaultOptions() Options {
	return Options{
		noSync:           false,
		segmentSize:      DefaultSegmentSize,
		logFormat:        codec.Binary,
		segmentCacheSize: DefaultSegmentCacheSize,
		noCopy:           false,
		dirPerms:         DefaultDirPerms,
		filePerms:        DefaultFilePerms,
	}
}

// Option describes the function signature all log options need to implement, in the same idiom
// as a functional-options writer configuration: a constructor taking zero or more Option values
// so future options can be added without breaking existing callers.
type Option func(*Options)

// WithNoSync disables the durable flush that otherwise follows every successful write. Sync
// remains available as an explicit operation regardless of this setting.
func WithNoSync(noSync bool) Option {
	return func(o *Options) {
		o.noSync = noSync
	}
}

// WithSegmentSize overwrites the default soft threshold that triggers a segment cycle.
func WithSegmentSize(segmentSize int64) Option {
	return func(o *Options) {
		if segmentSize > 0 {
			o.segmentSize = segmentSize
		}
	}
}

// WithLogFormat overwrites the default entry framing.
func WithLogFormat(format codec.Format) Option {
	return func(o *Options) {
		o.logFormat = format
	}
}

// WithSegmentCacheSize overwrites the default number of cold segments kept cached. Zero and
// negative values are rejected in favor of the default; the cache must never be disabled this way,
// only through the cache package's own semantics.
func WithSegmentCacheSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.segmentCacheSize = size
		}
	}
}

// WithNoCopy allows Read to return a binary-format payload that aliases the cached segment
// buffer instead of an independent copy. The caller must consume the slice before any further
// call into the log; a later cache eviction may reuse or clear the backing memory.
func WithNoCopy(noCopy bool) Option {
	return func(o *Options) {
		o.noCopy = noCopy
	}
}

// WithDirPerms overwrites the default permission mode for the log directory.
func WithDirPerms(perms uint32) Option {
	return func(o *Options) {
		o.dirPerms = perms
	}
}

// WithFilePerms overwrites the default permission mode for segment files.
func WithFilePerms(perms uint32) Option {
	return func(o *Options) {
		o.filePerms = perms
	}
}

// Config is a snapshot of an open Log's resolved configuration, exposed for introspection (the
// CLI's describe command prints one alongside the segment list).
type Config struct {
	NoSync           bool
	SegmentSize      int64
	LogFormat        codec.Format
	SegmentCacheSize int
	NoCopy           bool
	DirPerms         uint32
	FilePerms        uint32
}

func (o Options) config() Config {
	return Config{
		NoSync:           o.noSync,
		SegmentSize:      o.segmentSize,
		LogFormat:        o.logFormat,
		SegmentCacheSize: o.segmentCacheSize,
		NoCopy:           o.noCopy,
		DirPerms:         o.dirPerms,
		FilePerms:        o.filePerms,
	}
}
