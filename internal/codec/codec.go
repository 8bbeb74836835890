// Package codec frames and unframes individual write-ahead log entries. Two formats are
// supported: a compact binary varint-length-prefixed form, and a human-readable JSON-lines form.
// Both are out-of-scope for third-party libraries per design: the varint is the standard library's
// own LEB128 encoding (encoding/binary) and the JSON body is not valid enough JSON to hand to a
// general-purpose parser (see Decode).
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// ErrCorrupt is returned when a framed entry cannot be parsed: a truncated varint, a length that
// runs past the end of the buffer, a missing newline, or a malformed JSON line.
var ErrCorrupt = errors.New("codec: corrupt entry")

// Format selects the on-disk framing used for entries in a segment.
type Format int

const (
	// Binary frames an entry as varint(len) || payload. Default, compact, fast.
	Binary Format = iota
	// JSON frames an entry as one `{"index":"...","data":"..."}` line per entry.
	JSON
)

// String returns a human-readable name for the format, used by the CLI and log messages.
func (f Format) String() string {
	switch f {
	case Binary:
		return "binary"
	case JSON:
		return "json"
	default:
		return "unknown"
	}
}

const (
	jsonDataAnchor = `"data":"`
	utf8Tag        = '+'
	base64Tag      = '$'
)

// Append encodes data as a new entry for index and appends it to dst. It returns the grown slice
// together with the byte range (relative to the returned slice) the new entry occupies.
func Append(dst []byte, index uint64, data []byte, format Format) (out []byte, start int, end int) {
	start = len(dst)
	switch format {
	case JSON:
		out = appendJSON(dst, index, data)
	default:
		out = appendBinary(dst, data)
	}
	return out, start, len(out)
}

func appendBinary(dst []byte, data []byte) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(data)))
	dst = append(dst, lenBuf[:n]...)
	dst = append(dst, data...)
	return dst
}

func appendJSON(dst []byte, index uint64, data []byte) []byte {
	dst = append(dst, `{"index":"`...)
	dst = strconv.AppendUint(dst, index, 10)
	dst = append(dst, `","data":"`...)
	if utf8.Valid(data) {
		dst = append(dst, utf8Tag)
		dst = append(dst, data...)
	} else {
		dst = append(dst, base64Tag)
		dst = append(dst, base64.StdEncoding.EncodeToString(data)...)
	}
	dst = append(dst, "\"}\n"...)
	return dst
}

// Scan reports the byte length of one framed entry at the start of buf, without decoding its
// payload. Used by the segment loader to walk a buffer and build the position table.
func Scan(buf []byte, format Format) (n int, err error) {
	if format == JSON {
		return scanJSON(buf)
	}
	return scanBinary(buf)
}

func scanBinary(buf []byte) (int, error) {
	size, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, ErrCorrupt
	}
	if uint64(len(buf)-n) < size {
		return 0, ErrCorrupt
	}
	return n + int(size), nil
}

func scanJSON(buf []byte) (int, error) {
	idx := bytes.IndexByte(buf, '\n')
	if idx < 0 {
		return 0, ErrCorrupt
	}
	return idx + 1, nil
}

// Decode extracts the payload from a single framed entry. For Binary, noCopy controls whether the
// returned slice may alias edata; the caller must not retain it past the next cache eviction when
// true. JSON decoding always allocates, since the body is either copied out verbatim or
// base64-decoded.
func Decode(edata []byte, format Format, noCopy bool) ([]byte, error) {
	if format == JSON {
		return decodeJSON(edata)
	}
	return decodeBinary(edata, noCopy)
}

func decodeBinary(edata []byte, noCopy bool) ([]byte, error) {
	size, n := binary.Uvarint(edata)
	if n <= 0 {
		return nil, ErrCorrupt
	}
	if uint64(len(edata)-n) < size {
		return nil, ErrCorrupt
	}
	if noCopy {
		return edata[n : uint64(n)+size], nil
	}
	data := make([]byte, size)
	copy(data, edata[n:uint64(n)+size])
	return data, nil
}

// decodeJSON implements the deliberately hand-rolled scan documented in the format design notes:
// find the `"data":"` anchor, read the tag byte, then read until the closing quote. A real JSON
// unmarshal would choke on or silently mis-decode exactly the payloads the format is documented
// not to escape.
func decodeJSON(edata []byte) ([]byte, error) {
	anchor := bytes.Index(edata, []byte(jsonDataAnchor))
	if anchor < 0 {
		return nil, fmt.Errorf("%w: missing data anchor", ErrCorrupt)
	}
	body := edata[anchor+len(jsonDataAnchor):]
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: truncated data value", ErrCorrupt)
	}

	tag := body[0]
	rest := body[1:]
	end := bytes.IndexByte(rest, '"')
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated data value", ErrCorrupt)
	}
	value := rest[:end]

	switch tag {
	case utf8Tag:
		data := make([]byte, len(value))
		copy(data, value)
		return data, nil
	case base64Tag:
		data, err := base64.StdEncoding.DecodeString(string(value))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized data tag %q", ErrCorrupt, tag)
	}
}
