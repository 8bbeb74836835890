package wal

import (
	"fmt"
	"os"

	"github.com/ondisk/seglog/internal/codec"
)

// position is one entry's byte range inside a segment's decoded buffer.
type position struct {
	start int
	end   int
}

// segment is one on-disk segment file. ebuf and epos are materialised lazily: a cold segment
// (neither the tail nor held in the cache) has both nil until something needs to read through it
// again, at which point loadEntries rebuilds them with a single linear scan.
type segment struct {
	index uint64 // first entry index stored in this segment
	path  string
	ebuf  []byte
	epos  []position
}

// count reports how many entries are currently loaded for this segment. It is only meaningful
// once the segment has been loaded; a cold segment reports 0 regardless of its true content.
func (s *segment) count() int {
	return len(s.epos)
}

// cold reports whether the segment's buffer has not been materialised.
func (s *segment) cold() bool {
	return s.epos == nil
}

// release drops the segment's decoded buffer and position table, returning it to a cold state.
// Called when the segment cache evicts it, so a cold segment is truly cold and not just unused.
func (s *segment) release() {
	s.ebuf = nil
	s.epos = nil
}

// loadEntries reads the segment file in full and rebuilds its position table by walking the
// buffer from offset 0, framing one entry at a time with the active codec format. Any residual
// bytes once the scan can no longer make progress, or a frame that fails to parse, is corruption.
func loadEntries(s *segment, format codec.Format) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("%w: reading segment %q: %w", ErrIOError, s.path, err)
	}

	epos := make([]position, 0, 64)
	pos := 0
	for pos < len(data) {
		n, err := codec.Scan(data[pos:], format)
		if err != nil {
			return fmt.Errorf("%w: scanning segment %q at offset %d: %v", ErrCorrupt, s.path, pos, err)
		}
		epos = append(epos, position{start: pos, end: pos + n})
		pos += n
	}

	s.ebuf = data
	s.epos = epos
	return nil
}
