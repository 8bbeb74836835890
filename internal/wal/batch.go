package wal

// batchEntry is one (index, size) pair inside a Batch; size is the payload length in bytes, so
// the matching slice of Batch.datas can be recovered as the batch is walked.
type batchEntry struct {
	index uint64
	size  int
}

// Batch is a transient, caller-mutable assembly of entries to append in a single call: an
// ordered sequence of (index, size) pairs alongside a contiguous byte region concatenating every
// payload. A Log keeps one Batch as reusable staging space for single-entry Write calls; callers
// building their own batches should construct a Batch directly.
type Batch struct {
	entries []batchEntry
	datas   []byte
}

// Write appends one entry to the batch.
func (b *Batch) Write(index uint64, data []byte) {
	b.entries = append(b.entries, batchEntry{index: index, size: len(data)})
	b.datas = append(b.datas, data...)
}

// Len reports how many entries are staged in the batch.
func (b *Batch) Len() int {
	return len(b.entries)
}

// Clear empties the batch, retaining its backing arrays so repeated use does not reallocate.
func (b *Batch) Clear() {
	b.entries = b.entries[:0]
	b.datas = b.datas[:0]
}
