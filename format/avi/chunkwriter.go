package avi

import (
	"math"

	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/format/avi/riffio"
	"github.com/ugparu/goavi/utils/bits/pio"
)

// maxChunkDepth bounds list nesting: RIFF, hdrl, strl, odml, movi leave room to spare.
const maxChunkDepth = 8

// ReservedSlot is a chunk written early with placeholder content and filled later.
type ReservedSlot struct {
	Offset int64  // chunk header offset
	Size   uint32 // payload size, fixed at reservation
}

type openChunk struct {
	offset   int64
	estimate uint32
}

// chunkWriter appends chunks at a cursor and keeps the stack of open lists
// whose sizes are patched when they close.
type chunkWriter struct {
	f      goavi.File
	cursor int64
	stack  [maxChunkDepth]openChunk
	depth  int
	hdr    [riffio.ListHeaderSize]byte
	pad    [1]byte
}

func newChunkWriter(f goavi.File) *chunkWriter {
	return &chunkWriter{f: f}
}

func (w *chunkWriter) write(b []byte) error {
	if err := goavi.WriteFull(w.f, b, w.cursor); err != nil {
		return err
	}
	w.cursor += int64(len(b))
	return nil
}

// open starts a list (listType != 0) or a plain chunk whose payload follows in
// later writes. estimate is written as the size and patched by close if wrong.
func (w *chunkWriter) open(id, listType riffio.FourCC, estimate uint32) error {
	if w.depth == maxChunkDepth {
		return goavi.Errorf(goavi.ErrStackOverflow, "open chunk", "%s nested deeper than %d", id, maxChunkDepth)
	}
	w.stack[w.depth] = openChunk{offset: w.cursor, estimate: estimate}
	pio.PutU32LE(w.hdr[0:], uint32(id))
	pio.PutU32LE(w.hdr[4:], estimate)
	n := riffio.HeaderSize
	if listType != 0 {
		pio.PutU32LE(w.hdr[8:], uint32(listType))
		n = riffio.ListHeaderSize
	}
	if err := w.write(w.hdr[:n]); err != nil {
		return err
	}
	w.depth++
	return nil
}

// close ends the innermost open chunk, patching its size and padding it to a
// word boundary.
func (w *chunkWriter) close() error {
	if w.depth == 0 {
		return goavi.Errorf(goavi.ErrInvalidData, "close chunk", "no open chunk")
	}
	top := w.stack[w.depth-1]
	size := w.cursor - top.offset - riffio.HeaderSize
	if size > math.MaxUint32 {
		return goavi.Errorf(goavi.ErrInvalidData, "close chunk", "chunk at %d is %d bytes long", top.offset, size)
	}
	if uint32(size) != top.estimate {
		var b [4]byte
		pio.PutU32LE(b[:], uint32(size))
		if err := goavi.WriteFull(w.f, b[:], top.offset+4); err != nil {
			return err
		}
	}
	if size&1 == 1 {
		if err := w.write(w.pad[:]); err != nil {
			return err
		}
	}
	w.depth--
	return nil
}

// writeChunk appends a complete chunk and returns its header offset.
func (w *chunkWriter) writeChunk(id riffio.FourCC, data []byte) (int64, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return 0, goavi.Errorf(goavi.ErrInvalidData, "write chunk", "%s payload of %d bytes", id, len(data))
	}
	offset := w.cursor
	pio.PutU32LE(w.hdr[0:], uint32(id))
	pio.PutU32LE(w.hdr[4:], uint32(len(data)))
	if err := w.write(w.hdr[:riffio.HeaderSize]); err != nil {
		return 0, err
	}
	if err := w.write(data); err != nil {
		return 0, err
	}
	if len(data)&1 == 1 {
		if err := w.write(w.pad[:]); err != nil {
			return 0, err
		}
	}
	return offset, nil
}

// reserve writes data as a placeholder whose content fill replaces later.
func (w *chunkWriter) reserve(id riffio.FourCC, data []byte) (ReservedSlot, error) {
	offset, err := w.writeChunk(id, data)
	if err != nil {
		return ReservedSlot{}, err
	}
	return ReservedSlot{Offset: offset, Size: uint32(len(data))}, nil
}

// fill rewrites a reserved chunk in place. The cursor does not move.
func (w *chunkWriter) fill(slot ReservedSlot, id riffio.FourCC, data []byte) error {
	if uint64(len(data)) != uint64(slot.Size) {
		return goavi.Errorf(goavi.ErrInvalidData, "fill chunk", "%s at %d: %d bytes for a %d byte slot", id, slot.Offset, len(data), slot.Size)
	}
	var hdr [riffio.HeaderSize]byte
	pio.PutU32LE(hdr[0:], uint32(id))
	pio.PutU32LE(hdr[4:], slot.Size)
	if err := goavi.WriteFull(w.f, hdr[:], slot.Offset); err != nil {
		return err
	}
	return goavi.WriteFull(w.f, data, slot.Offset+riffio.HeaderSize)
}
