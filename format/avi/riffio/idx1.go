package riffio

import "github.com/ugparu/goavi/utils/bits/pio"

const LegacyIndexEntrySize = 16

// Legacy index entry flags.
const (
	AVIIFList     = 0x00000001
	AVIIFKeyFrame = 0x00000010
	AVIIFNoTime   = 0x00000100
)

// LegacyIndexEntry is one 16-byte idx1 record.
type LegacyIndexEntry struct {
	ChunkID FourCC
	Flags   uint32
	Offset  uint32 // chunk header offset, normally relative to the movi type code
	Size    uint32 // payload size
}

func (e LegacyIndexEntry) Len() int {
	return LegacyIndexEntrySize
}

func (e LegacyIndexEntry) Marshal(b []byte) (n int) {
	pio.PutU32LE(b[0:], uint32(e.ChunkID))
	pio.PutU32LE(b[4:], e.Flags)
	pio.PutU32LE(b[8:], e.Offset)
	pio.PutU32LE(b[12:], e.Size)
	return LegacyIndexEntrySize
}

func (e *LegacyIndexEntry) Unmarshal(b []byte, offset int64) (n int, err error) {
	r := fieldReader{b: b, offset: offset}
	e.ChunkID = r.fourCC("ChunkID")
	e.Flags = r.u32("Flags")
	e.Offset = r.u32("Offset")
	e.Size = r.u32("Size")
	if r.err != nil {
		return r.n, parseErr("idx1", offset, r.err)
	}
	return r.n, nil
}

// UnmarshalLegacyIndex decodes a whole idx1 payload. A trailing partial entry is ignored.
func UnmarshalLegacyIndex(b []byte, offset int64) ([]LegacyIndexEntry, error) {
	entries := make([]LegacyIndexEntry, len(b)/LegacyIndexEntrySize)
	for i := range entries {
		pos := i * LegacyIndexEntrySize
		if _, err := entries[i].Unmarshal(b[pos:], offset+int64(pos)); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
