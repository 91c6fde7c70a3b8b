package riffio

import "github.com/ugparu/goavi/utils/bits/pio"

// fieldReader walks a little-endian payload field by field. The first field
// that runs past the buffer records a ParseError and every later read is a no-op.
type fieldReader struct {
	b      []byte
	n      int
	offset int64
	err    error
}

func (r *fieldReader) need(field string, size int) bool {
	if r.err != nil {
		return false
	}
	if len(r.b) < r.n+size {
		r.err = parseErr(field, r.offset+int64(r.n), r.err)
		return false
	}
	return true
}

func (r *fieldReader) u16(field string) (v uint16) {
	if r.need(field, 2) { //nolint:mnd
		v = pio.U16LE(r.b[r.n:])
		r.n += 2
	}
	return
}

func (r *fieldReader) i16(field string) (v int16) {
	if r.need(field, 2) { //nolint:mnd
		v = pio.I16LE(r.b[r.n:])
		r.n += 2
	}
	return
}

func (r *fieldReader) u32(field string) (v uint32) {
	if r.need(field, 4) { //nolint:mnd
		v = pio.U32LE(r.b[r.n:])
		r.n += 4
	}
	return
}

func (r *fieldReader) i32(field string) (v int32) {
	if r.need(field, 4) { //nolint:mnd
		v = pio.I32LE(r.b[r.n:])
		r.n += 4
	}
	return
}

func (r *fieldReader) u64(field string) (v uint64) {
	if r.need(field, 8) { //nolint:mnd
		v = pio.U64LE(r.b[r.n:])
		r.n += 8
	}
	return
}

func (r *fieldReader) fourCC(field string) FourCC {
	return FourCC(r.u32(field))
}

func (r *fieldReader) skip(field string, size int) {
	if r.need(field, size) {
		r.n += size
	}
}
