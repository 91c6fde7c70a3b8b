package riffio

import "github.com/ugparu/goavi/utils/bits/pio"

// OpenDML index types.
const (
	IndexOfIndexes = 0x00
	IndexOfChunks  = 0x01

	IndexHeaderSize        = 24
	SuperIndexEntrySize    = 16
	StandardIndexEntrySize = 8

	// DeltaFrame marks a non-key frame in a standard index entry size.
	DeltaFrame = 0x80000000
)

// IndexHeader is the part shared by every indx and ix## payload.
type IndexHeader struct {
	LongsPerEntry uint16
	IndexSubType  uint8
	IndexType     uint8
	EntriesInUse  uint32
	ChunkID       FourCC // the sample chunk ID the index covers, e.g. 00dc
}

func (h IndexHeader) marshal(b []byte) (n int) {
	pio.PutU16LE(b[n:], h.LongsPerEntry)
	n += 2
	pio.PutU8(b[n:], h.IndexSubType)
	n++
	pio.PutU8(b[n:], h.IndexType)
	n++
	pio.PutU32LE(b[n:], h.EntriesInUse)
	n += 4
	pio.PutU32LE(b[n:], uint32(h.ChunkID))
	n += 4
	return
}

func (h *IndexHeader) unmarshal(r *fieldReader) {
	h.LongsPerEntry = r.u16("LongsPerEntry")
	if r.need("IndexSubType", 2) { //nolint:mnd
		h.IndexSubType = pio.U8(r.b[r.n:])
		h.IndexType = pio.U8(r.b[r.n+1:])
		r.n += 2
	}
	h.EntriesInUse = r.u32("EntriesInUse")
	h.ChunkID = r.fourCC("ChunkID")
}

// PeekIndexHeader decodes the common header to tell super and standard indexes apart.
func PeekIndexHeader(b []byte, offset int64) (h IndexHeader, err error) {
	r := fieldReader{b: b, offset: offset}
	h.unmarshal(&r)
	if r.err != nil {
		return h, parseErr("index header", offset, r.err)
	}
	return h, nil
}

// SuperIndexEntry points at one ix## chunk.
type SuperIndexEntry struct {
	Offset   uint64 // absolute offset of the ix## chunk header
	Size     uint32 // ix## chunk length including its header
	Duration uint32 // samples covered, in stream ticks
}

// SuperIndex is an indx chunk of type IndexOfIndexes.
type SuperIndex struct {
	IndexHeader
	Entries []SuperIndexEntry
	// Capacity pads the encoding with unused zero entries so the chunk keeps
	// the size of the placeholder it replaces.
	Capacity int
}

func (s SuperIndex) slots() int {
	if s.Capacity > len(s.Entries) {
		return s.Capacity
	}
	return len(s.Entries)
}

func (s SuperIndex) Len() int {
	return IndexHeaderSize + SuperIndexEntrySize*s.slots()
}

func (s SuperIndex) Marshal(b []byte) (n int) {
	h := s.IndexHeader
	h.LongsPerEntry = SuperIndexEntrySize / 4 //nolint:mnd
	h.IndexType = IndexOfIndexes
	h.EntriesInUse = uint32(len(s.Entries))
	n += h.marshal(b)
	for i := 0; i < 3; i++ { //nolint:mnd
		pio.PutU32LE(b[n:], 0)
		n += 4
	}
	for _, e := range s.Entries {
		pio.PutU64LE(b[n:], e.Offset)
		pio.PutU32LE(b[n+8:], e.Size)
		pio.PutU32LE(b[n+12:], e.Duration)
		n += SuperIndexEntrySize
	}
	for i := len(s.Entries); i < s.slots(); i++ {
		clear(b[n : n+SuperIndexEntrySize])
		n += SuperIndexEntrySize
	}
	return
}

func (s *SuperIndex) Unmarshal(b []byte, offset int64) (n int, err error) {
	r := fieldReader{b: b, offset: offset}
	s.IndexHeader.unmarshal(&r)
	r.skip("Reserved", 12) //nolint:mnd
	if r.err != nil {
		return r.n, parseErr("indx", offset, r.err)
	}
	if s.IndexType != IndexOfIndexes {
		return r.n, parseErr("IndexType", offset+3, nil) //nolint:mnd
	}
	s.Entries = make([]SuperIndexEntry, 0, min(int(s.EntriesInUse), (len(b)-r.n)/SuperIndexEntrySize))
	for i := uint32(0); i < s.EntriesInUse; i++ {
		var e SuperIndexEntry
		e.Offset = r.u64("qwOffset")
		e.Size = r.u32("dwSize")
		e.Duration = r.u32("dwDuration")
		if r.err != nil {
			return r.n, parseErr("indx", offset, r.err)
		}
		s.Entries = append(s.Entries, e)
	}
	s.Capacity = (len(b) - IndexHeaderSize) / SuperIndexEntrySize
	return r.n, nil
}

// StandardIndexEntry locates one sample chunk relative to the base offset.
type StandardIndexEntry struct {
	Offset uint32 // payload offset minus BaseOffset
	Size   uint32 // payload size, DeltaFrame set for non-key frames
}

// PayloadSize is the entry size without the key frame flag.
func (e StandardIndexEntry) PayloadSize() uint32 {
	return e.Size &^ DeltaFrame
}

// KeyFrame reports whether the entry is not flagged as a delta frame.
func (e StandardIndexEntry) KeyFrame() bool {
	return e.Size&DeltaFrame == 0
}

// StandardIndex is an ix## chunk, or an indx chunk of type IndexOfChunks.
type StandardIndex struct {
	IndexHeader
	BaseOffset uint64
	Entries    []StandardIndexEntry
}

func (s StandardIndex) Len() int {
	return IndexHeaderSize + StandardIndexEntrySize*len(s.Entries)
}

func (s StandardIndex) Marshal(b []byte) (n int) {
	h := s.IndexHeader
	h.LongsPerEntry = StandardIndexEntrySize / 4 //nolint:mnd
	h.IndexType = IndexOfChunks
	h.EntriesInUse = uint32(len(s.Entries))
	n += h.marshal(b)
	pio.PutU64LE(b[n:], s.BaseOffset)
	n += 8
	pio.PutU32LE(b[n:], 0)
	n += 4
	for _, e := range s.Entries {
		pio.PutU32LE(b[n:], e.Offset)
		pio.PutU32LE(b[n+4:], e.Size)
		n += StandardIndexEntrySize
	}
	return
}

func (s *StandardIndex) Unmarshal(b []byte, offset int64) (n int, err error) {
	r := fieldReader{b: b, offset: offset}
	s.IndexHeader.unmarshal(&r)
	s.BaseOffset = r.u64("BaseOffset")
	r.skip("Reserved", 4) //nolint:mnd
	if r.err != nil {
		return r.n, parseErr("ix##", offset, r.err)
	}
	if s.IndexType != IndexOfChunks {
		return r.n, parseErr("IndexType", offset+3, nil) //nolint:mnd
	}
	s.Entries = make([]StandardIndexEntry, 0, min(int(s.EntriesInUse), (len(b)-r.n)/StandardIndexEntrySize))
	for i := uint32(0); i < s.EntriesInUse; i++ {
		var e StandardIndexEntry
		e.Offset = r.u32("dwOffset")
		e.Size = r.u32("dwSize")
		if r.err != nil {
			return r.n, parseErr("ix##", offset, r.err)
		}
		s.Entries = append(s.Entries, e)
	}
	return r.n, nil
}
