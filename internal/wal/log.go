package wal

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ondisk/seglog/internal/cache"
	"github.com/ondisk/seglog/internal/codec"
	"github.com/ondisk/seglog/internal/fsutil"
	"github.com/ondisk/seglog/internal/naming"
	"github.com/ondisk/seglog/internal/utils"
)

// Log is a directory-backed, segmented write-ahead log. A single Log instance owns its directory
// exclusively; opening the same directory from two instances concurrently is unsupported.
//
// Every exported method locks the whole instance, even though the data model assumes a single
// logical writer: a mistaken second caller fails safely, serialized behind the lock, instead of
// racing.
//
// Log is not safe to copy after use; go vet flags accidental copies via its NoCopy field.
type Log struct {
	noCopy utils.NoCopy
	mu     sync.Mutex

	path string
	opts Options

	closed  bool
	corrupt bool

	segments   []*segment
	firstIndex uint64
	lastIndex  uint64

	dirFile *os.File
	sfile   *os.File

	wbatch Batch
	cache  *cache.Cache
}

// Open opens the write-ahead log stored in directory, creating it if it does not yet exist.
func Open(directory string, opts ...Option) (*Log, error) {
	path, err := absPath(directory)
	if err != nil {
		return nil, err
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if err := os.MkdirAll(path, os.FileMode(options.dirPerms)); err != nil {
		return nil, fmt.Errorf("%w: creating log directory %q: %w", ErrIOError, path, err)
	}

	l := &Log{
		path:  path,
		opts:  options,
		cache: cache.New(options.segmentCacheSize),
	}

	if err := l.load(); err != nil {
		return nil, err
	}

	dirFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening log directory %q: %w", ErrIOError, path, err)
	}
	l.dirFile = dirFile

	return l, nil
}

// absPath resolves directory to an absolute path, rejecting the reserved ":memory:" sentinel the
// way this design's reference implementation does.
func absPath(directory string) (string, error) {
	if directory == ":memory:" {
		return "", fmt.Errorf("%w: in-memory logs are not supported", ErrInvalid)
	}
	path, err := filepath.Abs(directory)
	if err != nil {
		return "", fmt.Errorf("%w: resolving %q: %v", ErrInvalid, directory, err)
	}
	return path, nil
}

// load is the crash-recovery directory loader, run exactly once at construction. It reconciles
// at most one pending truncation marker before opening the tail segment for append.
func (l *Log) load() error {
	dirEntries, err := os.ReadDir(l.path)
	if err != nil {
		return fmt.Errorf("%w: reading log directory %q: %w", ErrIOError, l.path, err)
	}

	var segments []*segment
	startPos, endPos := -1, -1
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		index, kind, ok := naming.Parse(dirEntry.Name())
		if !ok {
			continue
		}
		switch kind {
		case naming.KindStart:
			if startPos == -1 {
				startPos = len(segments)
			}
		case naming.KindEnd:
			if endPos == -1 {
				endPos = len(segments)
			}
		}
		segments = append(segments, &segment{
			index: index,
			path:  filepath.Join(l.path, dirEntry.Name()),
		})
	}

	if len(segments) == 0 {
		return l.createFreshTail()
	}

	if startPos != -1 && endPos != -1 {
		l.corrupt = true
		CorruptTotal.Inc()
		return fmt.Errorf("%w: both a pending truncate-front and truncate-back marker are present", ErrCorrupt)
	}

	if startPos != -1 {
		for i := 0; i < startPos; i++ {
			if err := os.Remove(segments[i].path); err != nil {
				return fmt.Errorf("%w: removing truncate-front victim %q: %w", ErrIOError, segments[i].path, err)
			}
		}
		segments = segments[startPos:]
		finalPath := strings.TrimSuffix(segments[0].path, naming.StartSuffix)
		if err := fsutil.Rename(segments[0].path, finalPath); err != nil {
			return fmt.Errorf("%w: %w", ErrIOError, err)
		}
		segments[0].path = finalPath
	}

	if endPos != -1 {
		for i := len(segments) - 1; i > endPos; i-- {
			if err := os.Remove(segments[i].path); err != nil {
				return fmt.Errorf("%w: removing truncate-back victim %q: %w", ErrIOError, segments[i].path, err)
			}
		}
		segments = segments[:endPos+1]
		if len(segments) > 1 && segments[len(segments)-2].index == segments[len(segments)-1].index {
			segments[len(segments)-2] = segments[len(segments)-1]
			segments = segments[:len(segments)-1]
		}
		finalPath := strings.TrimSuffix(segments[len(segments)-1].path, naming.EndSuffix)
		if err := fsutil.Rename(segments[len(segments)-1].path, finalPath); err != nil {
			return fmt.Errorf("%w: %w", ErrIOError, err)
		}
		segments[len(segments)-1].path = finalPath
	}

	l.segments = segments
	l.firstIndex = segments[0].index

	tail := segments[len(segments)-1]
	f, err := os.OpenFile(tail.path, os.O_RDWR, os.FileMode(l.opts.filePerms))
	if err != nil {
		return fmt.Errorf("%w: opening tail segment %q: %w", ErrIOError, tail.path, err)
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return fmt.Errorf("%w: seeking tail segment %q: %w", ErrIOError, tail.path, err)
	}
	l.sfile = f

	if err := loadEntries(tail, l.opts.logFormat); err != nil {
		return err
	}
	l.lastIndex = tail.index + uint64(tail.count()) - 1
	return nil
}

// createFreshTail initializes a brand new log with a single empty tail segment at index 1.
func (l *Log) createFreshTail() error {
	tailPath := filepath.Join(l.path, naming.SegmentName(1))
	f, err := os.OpenFile(tailPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, os.FileMode(l.opts.filePerms))
	if err != nil {
		return fmt.Errorf("%w: creating initial segment %q: %w", ErrIOError, tailPath, err)
	}
	l.segments = []*segment{{index: 1, path: tailPath, ebuf: []byte{}, epos: []position{}}}
	l.firstIndex = 1
	l.lastIndex = 0
	l.sfile = f
	return nil
}

// checkOpen enforces the sticky corrupt/closed gating every public operation performs before
// doing anything else.
func (l *Log) checkOpen() error {
	if l.corrupt {
		return ErrCorrupt
	}
	if l.closed {
		return ErrClosed
	}
	return nil
}

func (l *Log) setCorrupt() {
	l.corrupt = true
	CorruptTotal.Inc()
}

// Write appends a single entry at index, as a one-entry WriteBatch.
func (l *Log) Write(index uint64, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkOpen(); err != nil {
		return err
	}
	l.wbatch.Clear()
	l.wbatch.Write(index, data)
	return l.writeBatch(&l.wbatch)
}

// WriteBatch appends every entry in b, in order, as a single durable unit.
func (l *Log) WriteBatch(b *Batch) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkOpen(); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}
	return l.writeBatch(b)
}

func (l *Log) writeBatch(b *Batch) error {
	for i, e := range b.entries {
		if e.index != l.lastIndex+uint64(i+1) {
			return ErrOutOfOrder
		}
	}

	s := l.segments[len(l.segments)-1]
	if int64(len(s.ebuf)) > l.opts.segmentSize {
		if err := l.cycle(); err != nil {
			return err
		}
		s = l.segments[len(l.segments)-1]
	}

	mark := len(s.ebuf)
	datas := b.datas
	for _, e := range b.entries {
		data := datas[:e.size]
		var start, end int
		s.ebuf, start, end = codec.Append(s.ebuf, e.index, data, l.opts.logFormat)
		s.epos = append(s.epos, position{start: start, end: end})
		EntriesAppendedTotal.Inc()

		if int64(len(s.ebuf)) >= l.opts.segmentSize {
			if err := l.flush(s, mark); err != nil {
				return err
			}
			l.lastIndex = e.index
			if err := l.cycle(); err != nil {
				return err
			}
			s = l.segments[len(l.segments)-1]
			mark = 0
		}
		datas = datas[e.size:]
	}

	if len(s.ebuf)-mark > 0 {
		if err := l.flush(s, mark); err != nil {
			return err
		}
		l.lastIndex = b.entries[len(b.entries)-1].index
	}

	if !l.opts.noSync {
		if err := l.syncTail(); err != nil {
			return err
		}
	}

	b.Clear()
	return nil
}

// flush writes s.ebuf[mark:] to the open tail file handle.
func (l *Log) flush(s *segment, mark int) error {
	n, err := l.sfile.Write(s.ebuf[mark:])
	if err != nil {
		return fmt.Errorf("%w: writing to segment %q: %w", ErrIOError, s.path, err)
	}
	BytesAppendedTotal.Add(float64(n))
	return nil
}

// cycle closes the current tail, caching it, and opens a fresh empty segment to receive further
// appends.
func (l *Log) cycle() error {
	start := time.Now()

	if err := l.syncTail(); err != nil {
		return err
	}
	if err := l.sfile.Close(); err != nil {
		return fmt.Errorf("%w: closing segment %q: %w", ErrIOError, l.segments[len(l.segments)-1].path, err)
	}
	l.pushCache(len(l.segments) - 1)

	next := &segment{
		index: l.lastIndex + 1,
		path:  filepath.Join(l.path, naming.SegmentName(l.lastIndex+1)),
		ebuf:  []byte{},
		epos:  []position{},
	}
	f, err := os.OpenFile(next.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, os.FileMode(l.opts.filePerms))
	if err != nil {
		return fmt.Errorf("%w: creating segment %q: %w", ErrIOError, next.path, err)
	}
	l.sfile = f
	l.segments = append(l.segments, next)

	SegmentCycleTotal.Inc()
	duration := time.Since(start).Seconds()
	if duration > 1.0 {
		log.Printf("WARNING: segment cycle took %f seconds which is too slow.\n", duration)
	}
	SegmentCycleDuration.Observe(duration)
	return nil
}

// pushCache inserts the segment at list position segIdx into the bounded cache, releasing
// whatever segment it evicts to make room.
func (l *Log) pushCache(segIdx int) {
	l.cache.Set(segIdx, l.segments[segIdx], func(evicted any) {
		evicted.(*segment).release()
		CacheEvictionsTotal.Inc()
	})
}

// FirstIndex reports the index of the oldest entry still stored, or 0 if the log is empty.
func (l *Log) FirstIndex() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkOpen(); err != nil {
		return 0, err
	}
	if l.lastIndex == 0 {
		return 0, nil
	}
	return l.firstIndex, nil
}

// LastIndex reports the index of the newest entry stored, or 0 if the log is empty.
func (l *Log) LastIndex() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkOpen(); err != nil {
		return 0, err
	}
	if l.lastIndex == 0 {
		return 0, nil
	}
	return l.lastIndex, nil
}

// Read returns the payload stored at index.
func (l *Log) Read(index uint64) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	if index == 0 || index < l.firstIndex || index > l.lastIndex {
		return nil, ErrNotFound
	}

	s, err := l.loadSegment(index)
	if err != nil {
		return nil, err
	}
	pos := s.epos[index-s.index]
	edata := s.ebuf[pos.start:pos.end]

	data, err := codec.Decode(edata, l.opts.logFormat, l.opts.noCopy)
	if err != nil {
		l.setCorrupt()
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return data, nil
}

// findSegment returns the list position of the segment that would contain index, by bisecting
// on starting index. Callers must already know index is in range.
func (l *Log) findSegment(index uint64) int {
	i, j := 0, len(l.segments)
	for i < j {
		h := i + (j-i)/2
		if index >= l.segments[h].index {
			i = h + 1
		} else {
			j = h
		}
	}
	return i - 1
}

// loadSegment returns the segment covering index, taking the tail fast path, then the cache,
// then lazily loading and caching a cold segment found by bisection.
func (l *Log) loadSegment(index uint64) (*segment, error) {
	tail := l.segments[len(l.segments)-1]
	if index >= tail.index {
		return tail, nil
	}

	var cached *segment
	l.cache.Range(func(value any) bool {
		s := value.(*segment)
		if index >= s.index && index < s.index+uint64(s.count()) {
			cached = s
			return false
		}
		return true
	})
	if cached != nil {
		return cached, nil
	}

	segIdx := l.findSegment(index)
	s := l.segments[segIdx]
	if s.cold() {
		if err := loadEntries(s, l.opts.logFormat); err != nil {
			l.setCorrupt()
			return nil, err
		}
	}
	l.pushCache(segIdx)
	return s, nil
}

// syncTail durably flushes the tail segment file, independent of the NoSync option: this is the
// primitive both the explicit Sync operation and the implicit post-write flush are built on.
func (l *Log) syncTail() error {
	if err := l.sfile.Sync(); err != nil {
		return fmt.Errorf("%w: syncing segment %q: %w", ErrIOError, l.sfile.Name(), err)
	}
	return nil
}

// Config reports the log's resolved configuration, for introspection by callers such as the CLI's
// describe command.
func (l *Log) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts.config()
}

// SegmentInfo describes one on-disk segment file: where it lives, what index range it starts at,
// how many entries it holds, and how many bytes it occupies.
type SegmentInfo struct {
	Path       string
	StartIndex uint64
	EntryCount int
	ByteSize   int64
}

// Segments reports every segment currently tracked by the log, in ascending order. A cold segment
// is loaded to count its entries, the same as a Read into it would do, and is then inserted into
// the cache, where segments loaded later in the same call may evict it again.
func (l *Log) Segments() ([]SegmentInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkOpen(); err != nil {
		return nil, err
	}

	infos := make([]SegmentInfo, 0, len(l.segments))
	for i, s := range l.segments {
		if s.cold() {
			if err := loadEntries(s, l.opts.logFormat); err != nil {
				l.setCorrupt()
				return nil, err
			}
			l.pushCache(i)
		}
		infos = append(infos, SegmentInfo{
			Path:       s.path,
			StartIndex: s.index,
			EntryCount: s.count(),
			ByteSize:   int64(len(s.ebuf)),
		})
	}
	return infos, nil
}

// Sync durably flushes the tail segment, regardless of the NoSync option.
func (l *Log) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkOpen(); err != nil {
		return err
	}
	return l.syncTail()
}

// ClearCache empties the segment cache, releasing every cached segment's buffer.
func (l *Log) ClearCache() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkOpen(); err != nil {
		return err
	}
	l.clearCache()
	return nil
}

func (l *Log) clearCache() {
	l.cache.Clear(func(evicted any) {
		evicted.(*segment).release()
	})
}

// Close flushes and closes the log. Close is idempotent; calling it again does not touch the
// filesystem and returns nil, or ErrCorrupt if the log was poisoned.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		if l.corrupt {
			return ErrCorrupt
		}
		return nil
	}

	syncErr := l.syncTail()
	closeErr := l.sfile.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("%w: closing segment file %q: %w", ErrIOError, l.sfile.Name(), closeErr)
	}
	dirErr := l.dirFile.Close()
	if dirErr != nil {
		dirErr = fmt.Errorf("%w: closing log directory %q: %w", ErrIOError, l.path, dirErr)
	}
	l.closed = true

	if err := errors.Join(syncErr, closeErr, dirErr); err != nil {
		return err
	}
	if l.corrupt {
		return ErrCorrupt
	}
	return nil
}

// TruncateFront discards every entry before index. index itself becomes the new FirstIndex.
func (l *Log) TruncateFront(index uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkOpen(); err != nil {
		return err
	}
	return l.truncateFront(index)
}

func (l *Log) truncateFront(index uint64) error {
	if index == 0 || l.lastIndex == 0 || index < l.firstIndex || index > l.lastIndex {
		return ErrOutOfRange
	}
	if index == l.firstIndex {
		return nil
	}

	segIdx := l.findSegment(index)
	s, err := l.loadSegment(index)
	if err != nil {
		return err
	}

	offset := int(index - s.index)
	startOffset := s.epos[offset].start
	replacement := make([]byte, len(s.ebuf)-startOffset)
	copy(replacement, s.ebuf[startOffset:])

	shifted := make([]position, len(s.epos)-offset)
	for i, p := range s.epos[offset:] {
		shifted[i] = position{start: p.start - startOffset, end: p.end - startOffset}
	}

	tempPath, err := fsutil.WriteTempFile(l.path, naming.TempFileName, replacement, os.FileMode(l.opts.filePerms))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}

	startPath := filepath.Join(l.path, naming.StartName(index))
	if err := fsutil.Rename(tempPath, startPath); err != nil {
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}
	if err := fsutil.SyncDir(l.path); err != nil {
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}

	// Commit point passed. Every failure from here on poisons the instance; the next Open
	// reconciles the marker left on disk.
	isTail := segIdx == len(l.segments)-1
	if isTail {
		if err := l.sfile.Close(); err != nil {
			l.setCorrupt()
			return fmt.Errorf("%w: %w", ErrIOError, err)
		}
	}

	for i := 0; i <= segIdx; i++ {
		if err := os.Remove(l.segments[i].path); err != nil {
			l.setCorrupt()
			return fmt.Errorf("%w: removing %q: %w", ErrIOError, l.segments[i].path, err)
		}
	}

	finalPath := filepath.Join(l.path, naming.SegmentName(index))
	if err := fsutil.Rename(startPath, finalPath); err != nil {
		l.setCorrupt()
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}
	if err := fsutil.SyncDir(l.path); err != nil {
		l.setCorrupt()
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}

	s.path = finalPath
	s.index = index
	s.ebuf = replacement
	s.epos = shifted
	l.segments = append([]*segment{}, l.segments[segIdx:]...)
	l.firstIndex = index

	if isTail {
		f, err := os.OpenFile(finalPath, os.O_RDWR, os.FileMode(l.opts.filePerms))
		if err != nil {
			l.setCorrupt()
			return fmt.Errorf("%w: %w", ErrIOError, err)
		}
		n, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			l.setCorrupt()
			return fmt.Errorf("%w: %w", ErrIOError, err)
		}
		if n != int64(len(replacement)) {
			l.setCorrupt()
			return fmt.Errorf("%w: tail segment length mismatch after truncate-front", ErrCorrupt)
		}
		l.sfile = f
		if err := loadEntries(s, l.opts.logFormat); err != nil {
			l.setCorrupt()
			return err
		}
	}

	l.clearCache()
	TruncateFrontTotal.Inc()
	return nil
}

// TruncateBack discards every entry after index. index itself becomes the new LastIndex.
func (l *Log) TruncateBack(index uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkOpen(); err != nil {
		return err
	}
	return l.truncateBack(index)
}

func (l *Log) truncateBack(index uint64) error {
	if index == 0 || l.lastIndex == 0 || index < l.firstIndex || index > l.lastIndex {
		return ErrOutOfRange
	}
	if index == l.lastIndex {
		return nil
	}

	segIdx := l.findSegment(index)
	s, err := l.loadSegment(index)
	if err != nil {
		return err
	}

	offset := int(index - s.index)
	endOffset := s.epos[offset].end
	replacement := make([]byte, endOffset)
	copy(replacement, s.ebuf[:endOffset])

	kept := make([]position, offset+1)
	copy(kept, s.epos[:offset+1])

	tempPath, err := fsutil.WriteTempFile(l.path, naming.TempFileName, replacement, os.FileMode(l.opts.filePerms))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}

	endPath := filepath.Join(l.path, naming.EndName(s.index))
	if err := fsutil.Rename(tempPath, endPath); err != nil {
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}
	if err := fsutil.SyncDir(l.path); err != nil {
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}

	// Commit point passed.
	if err := l.sfile.Close(); err != nil {
		l.setCorrupt()
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}
	for i := len(l.segments) - 1; i >= segIdx; i-- {
		if err := os.Remove(l.segments[i].path); err != nil {
			l.setCorrupt()
			return fmt.Errorf("%w: removing %q: %w", ErrIOError, l.segments[i].path, err)
		}
	}

	finalPath := filepath.Join(l.path, naming.SegmentName(s.index))
	if err := fsutil.Rename(endPath, finalPath); err != nil {
		l.setCorrupt()
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}
	if err := fsutil.SyncDir(l.path); err != nil {
		l.setCorrupt()
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}

	s.path = finalPath
	s.ebuf = replacement
	s.epos = kept
	l.segments = append([]*segment{}, l.segments[:segIdx+1]...)
	l.lastIndex = index

	f, err := os.OpenFile(finalPath, os.O_RDWR, os.FileMode(l.opts.filePerms))
	if err != nil {
		l.setCorrupt()
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}
	n, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		l.setCorrupt()
		return fmt.Errorf("%w: %w", ErrIOError, err)
	}
	if n != int64(len(replacement)) {
		l.setCorrupt()
		return fmt.Errorf("%w: tail segment length mismatch after truncate-back", ErrCorrupt)
	}
	l.sfile = f
	l.clearCache()
	if err := loadEntries(s, l.opts.logFormat); err != nil {
		l.setCorrupt()
		return err
	}

	TruncateBackTotal.Inc()
	return nil
}
