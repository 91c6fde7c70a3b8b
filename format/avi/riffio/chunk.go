// Package riffio navigates and encodes the chunk tree of RIFF/AVI files.
package riffio

import (
	"errors"
	"io"

	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/utils/bits/pio"
)

const (
	HeaderSize     = 8  // type code + payload length
	ListHeaderSize = 12 // plus list type code
)

var (
	// ErrEndOfRange ends a scan: the next chunk would start at or past the parent's end.
	ErrEndOfRange = errors.New("riffio: end of range")
	// ErrNotFound reports a scan that reached the end of its range without a match.
	ErrNotFound = errors.New("riffio: chunk not found")
)

// Chunk describes one node of the tree. It is never persisted.
type Chunk struct {
	Offset   int64  // absolute offset of the chunk header
	Size     uint32 // payload length as declared in the header
	ID       FourCC
	ListType FourCC // set for RIFF and LIST chunks only
}

// IsList reports whether the chunk carries a list type and children.
func (c Chunk) IsList() bool {
	return c.ID == RIFF || c.ID == LIST
}

// DataOffset is the absolute offset of the payload.
func (c Chunk) DataOffset() int64 {
	return c.Offset + HeaderSize
}

// End is the absolute offset one past the payload, excluding the pad byte.
func (c Chunk) End() int64 {
	return c.DataOffset() + int64(c.Size)
}

// NextOffset is where the following sibling starts: chunks are word aligned.
func (c Chunk) NextOffset() int64 {
	return c.End() + int64(c.Size&1)
}

// TotalLen is the chunk length including its 8-byte header, without padding.
func (c Chunk) TotalLen() uint32 {
	return c.Size + HeaderSize
}

// Range is a byte range [Start, End) holding a sequence of sibling chunks.
type Range struct {
	Start int64
	End   int64
}

// FileRange covers a whole file of the given size.
func FileRange(size int64) Range {
	return Range{Start: 0, End: size}
}

// ChildRange returns the range of a list's children. Non-list parents are rejected
// before any child is read.
func ChildRange(parent Chunk) (Range, error) {
	if !parent.IsList() {
		return Range{}, goavi.Errorf(goavi.ErrInvalidData, "child range", "%s at %d is not a list", parent.ID, parent.Offset)
	}
	if parent.Size < ListHeaderSize-HeaderSize {
		return Range{}, goavi.Errorf(goavi.ErrInvalidData, "child range", "list at %d too short", parent.Offset)
	}
	return Range{Start: parent.Offset + ListHeaderSize, End: parent.End()}, nil
}

// ReadChunk reads the header of the chunk at offset. A truncated header is invalid data.
func ReadChunk(r io.ReaderAt, offset int64) (c Chunk, err error) {
	var b [ListHeaderSize]byte
	if err = goavi.ReadFull(r, b[:HeaderSize], offset); err != nil {
		return c, goavi.Wrap(goavi.ErrInvalidData, "read chunk header", err)
	}
	c.Offset = offset
	c.ID = FourCC(pio.U32LE(b[0:]))
	c.Size = pio.U32LE(b[4:])
	if c.IsList() {
		if c.Size < ListHeaderSize-HeaderSize {
			return c, goavi.Errorf(goavi.ErrInvalidData, "read chunk header", "list at %d shorter than its type code", offset)
		}
		if err = goavi.ReadFull(r, b[HeaderSize:], offset+HeaderSize); err != nil {
			return c, goavi.Wrap(goavi.ErrInvalidData, "read list type", err)
		}
		c.ListType = FourCC(pio.U32LE(b[HeaderSize:]))
	}
	return c, nil
}

func readIn(r io.ReaderAt, rng Range, offset int64) (Chunk, error) {
	if offset+HeaderSize > rng.End {
		return Chunk{}, ErrEndOfRange
	}
	return ReadChunk(r, offset)
}

// First returns the first chunk of rng.
func First(r io.ReaderAt, rng Range) (Chunk, error) {
	return readIn(r, rng, rng.Start)
}

// Next returns the sibling following cur within rng.
func Next(r io.ReaderAt, rng Range, cur Chunk) (Chunk, error) {
	return readIn(r, rng, cur.NextOffset())
}

func find(r io.ReaderAt, rng Range, start int64, match func(Chunk) bool) (Chunk, error) {
	c, err := readIn(r, rng, start)
	for ; err == nil; c, err = Next(r, rng, c) {
		if match(c) {
			return c, nil
		}
	}
	if errors.Is(err, ErrEndOfRange) {
		return Chunk{}, ErrNotFound
	}
	return Chunk{}, err
}

// FindChunk returns the first non-list chunk of rng with the given ID.
func FindChunk(r io.ReaderAt, rng Range, id FourCC) (Chunk, error) {
	return find(r, rng, rng.Start, func(c Chunk) bool { return c.ID == id })
}

// FindNextChunk continues a FindChunk scan after the chunk after.
func FindNextChunk(r io.ReaderAt, rng Range, after Chunk, id FourCC) (Chunk, error) {
	return find(r, rng, after.NextOffset(), func(c Chunk) bool { return c.ID == id })
}

// FindList returns the first list of rng with the given list type.
func FindList(r io.ReaderAt, rng Range, listType FourCC) (Chunk, error) {
	return find(r, rng, rng.Start, func(c Chunk) bool { return c.IsList() && c.ListType == listType })
}

// FindNextList continues a FindList scan after the chunk after.
func FindNextList(r io.ReaderAt, rng Range, after Chunk, listType FourCC) (Chunk, error) {
	return find(r, rng, after.NextOffset(), func(c Chunk) bool { return c.IsList() && c.ListType == listType })
}

// ReadPayload reads the whole payload of c into a new slice.
func ReadPayload(r io.ReaderAt, c Chunk) ([]byte, error) {
	b := make([]byte, c.Size)
	if err := goavi.ReadFull(r, b, c.DataOffset()); err != nil {
		return nil, err
	}
	return b, nil
}
