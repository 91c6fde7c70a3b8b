package avi

import (
	"github.com/ugparu/goavi"
)

// IndexEntry locates one sample chunk of a stream.
type IndexEntry struct {
	Offset int64  // absolute offset of the chunk header
	Length uint32 // chunk length including the 8-byte header
}

// PayloadSize is the length of the sample data inside the chunk.
func (e IndexEntry) PayloadSize() uint32 {
	if e.Length < 8 { //nolint:mnd
		return 0
	}
	return e.Length - 8 //nolint:mnd
}

// ChunkIndex is the ordered list of sample chunks of one stream.
type ChunkIndex struct {
	entries []IndexEntry
	growth  int
}

// NewChunkIndex returns an empty index that reserves room growth entries at a time.
func NewChunkIndex(growth int) *ChunkIndex {
	if growth <= 0 {
		growth = defaultIndexGrowth
	}
	return &ChunkIndex{growth: growth}
}

func (ix *ChunkIndex) grow(n int) {
	if n <= cap(ix.entries) {
		return
	}
	capacity := (n/ix.growth + 1) * ix.growth
	entries := make([]IndexEntry, len(ix.entries), capacity)
	copy(entries, ix.entries)
	ix.entries = entries
}

// Set stores the entry at position i, growing the index when i is past its end.
// Entries skipped over read as zero.
func (ix *ChunkIndex) Set(i int, offset int64, length uint32) error {
	if i < 0 {
		return goavi.Errorf(goavi.ErrInvalidData, "index set", "negative position %d", i)
	}
	if i >= len(ix.entries) {
		ix.grow(i + 1)
		n := len(ix.entries)
		ix.entries = ix.entries[:i+1]
		clear(ix.entries[n:i])
	}
	ix.entries[i] = IndexEntry{Offset: offset, Length: length}
	return nil
}

// Append adds an entry at the end and returns its position.
func (ix *ChunkIndex) Append(offset int64, length uint32) int {
	i := len(ix.entries)
	ix.grow(i + 1)
	ix.entries = append(ix.entries, IndexEntry{Offset: offset, Length: length})
	return i
}

func (ix *ChunkIndex) Len() int {
	return len(ix.entries)
}

// At returns entry i. It panics when i is out of range, like a slice.
func (ix *ChunkIndex) At(i int) IndexEntry {
	return ix.entries[i]
}

// Entries returns the live entries. The slice is shared with the index.
func (ix *ChunkIndex) Entries() []IndexEntry {
	return ix.entries
}

// Truncate drops every entry from position n on.
func (ix *ChunkIndex) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(ix.entries) {
		ix.entries = ix.entries[:n]
	}
}
