// Package naming implements the file-naming protocol for write-ahead log segments: mapping an
// entry index to a segment file name and recognizing the transient ".START"/".END" markers left
// behind by a truncation that has not yet completed.
package naming

import (
	"fmt"
	"strconv"
)

// IndexWidth is the number of decimal digits every segment file name is padded to.
const IndexWidth = 20

// TempFileName is the name of the scratch file a truncation writes its replacement segment to
// before committing with a rename.
const TempFileName = "TEMP"

// StartSuffix marks a segment file as the not-yet-committed result of a truncate-front.
const StartSuffix = ".START"

// EndSuffix marks a segment file as the not-yet-committed result of a truncate-back.
const EndSuffix = ".END"

// Kind classifies a segment file name by the suffix it carries.
type Kind int

const (
	// KindPlain is a committed segment file, named by its starting index alone.
	KindPlain Kind = iota
	// KindStart is a pending truncate-front replacement, not yet renamed into place.
	KindStart
	// KindEnd is a pending truncate-back replacement, not yet renamed into place.
	KindEnd
)

// SegmentName returns the canonical file name for a segment starting at the given index.
func SegmentName(index uint64) string {
	return fmt.Sprintf("%0*d", IndexWidth, index)
}

// StartName returns the transient ".START" file name for a truncate-front targeting index.
func StartName(index uint64) string {
	return SegmentName(index) + StartSuffix
}

// EndName returns the transient ".END" file name for a truncate-back of the segment starting at
// index.
func EndName(index uint64) string {
	return SegmentName(index) + EndSuffix
}

// Parse inspects a directory entry name and reports the index it encodes and the kind of segment
// file it is. ok is false when the name does not belong to this log at all: the leading digits do
// not parse, the index is zero, or the remainder of the name does not match a recognized suffix.
func Parse(name string) (index uint64, kind Kind, ok bool) {
	if len(name) < IndexWidth {
		return 0, 0, false
	}

	parsed, err := strconv.ParseUint(name[:IndexWidth], 10, 64)
	if err != nil || parsed == 0 {
		return 0, 0, false
	}

	switch {
	case len(name) == IndexWidth:
		return parsed, KindPlain, true
	case len(name) == IndexWidth+len(StartSuffix) && name[IndexWidth:] == StartSuffix:
		return parsed, KindStart, true
	case len(name) == IndexWidth+len(EndSuffix) && name[IndexWidth:] == EndSuffix:
		return parsed, KindEnd, true
	default:
		return 0, 0, false
	}
}
