package huffyuv

import "github.com/ugparu/goavi"

// littleEndianWithinBigEndianByte returns byte pos of the bitstream. HuffYUV
// writes its MSB-first bitstream as little-endian 32-bit words, so reading in
// stream order means flipping the byte index inside each word. Bytes of a
// trailing partial word and anything past the end read as zero.
func littleEndianWithinBigEndianByte(data []byte, pos int) byte {
	if pos >= len(data)&^3 {
		return 0
	}
	return data[pos^3]
}

// bitReader is a 32-bit window over the stream, topped up 8 bits at a time.
type bitReader struct {
	data   []byte
	pos    int
	window uint32 // next bits, left aligned
	avail  uint
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (r *bitReader) refill() {
	for r.avail <= 24 { //nolint:mnd
		r.window |= uint32(littleEndianWithinBigEndianByte(r.data, r.pos)) << (24 - r.avail) //nolint:mnd
		r.avail += 8
		r.pos++
	}
}

// consumed is the number of bits taken from the stream so far.
func (r *bitReader) consumed() int {
	return 8*r.pos - int(r.avail) //nolint:mnd
}

func (r *bitReader) skip(n uint) {
	r.window <<= n
	r.avail -= n
}

func (r *bitReader) readByte() uint8 {
	r.refill()
	v := uint8(r.window >> 24) //nolint:mnd
	r.skip(8)                  //nolint:mnd
	return v
}

// readSymbol decodes one symbol with the two level lookup of p.
func (r *bitReader) readSymbol(p *PlaneTable) (uint8, error) {
	r.refill()
	e := p.base[r.window>>lookupBits]
	if e.length != 0 {
		r.skip(uint(e.length))
		return e.sym, nil
	}
	if e.sub == 0 {
		return 0, goavi.Errorf(goavi.ErrInvalidData, "huffyuv decode", "no code for prefix %#04x at byte %d", r.window>>lookupBits, r.pos)
	}
	r.skip(lookupBits)
	r.refill()
	e = p.overflow[e.sub-1][r.window>>lookupBits]
	if e.length == 0 {
		return 0, goavi.Errorf(goavi.ErrInvalidData, "huffyuv decode", "no long code at byte %d", r.pos)
	}
	r.skip(uint(e.length))
	return e.sym, nil
}
