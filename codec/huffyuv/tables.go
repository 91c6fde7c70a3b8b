// Package huffyuv decodes HuffYUV (HFYU) video frames stored as 16 bits per
// pixel 4:2:2 into YUY2 images.
package huffyuv

import (
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/utils/logger"
)

// Predictor selects the spatial reconstruction applied to decoded residuals.
type Predictor uint8

const (
	Left Predictor = iota
	Gradient
	Median
)

func (p Predictor) String() string {
	switch p {
	case Left:
		return "LEFT"
	case Gradient:
		return "GRADIENT"
	case Median:
		return "MEDIAN"
	}
	return "?"
}

const (
	// MinExtraSize is the codec data needed before the length tables start.
	MinExtraSize = 4

	methodDecorrelate = 0x40
	methodPredictor   = 0x3f
	flagContext       = 0x40
	interlaceMask     = 0x30
	interlaceShift    = 4
	interlaceOn       = 1
	interlaceOff      = 2

	// tall frames are assumed interlaced unless the flags say otherwise
	interlaceHeight = 288

	supportedBPP = 16
	planes       = 3
	symbols      = 256
	maxCodeLen   = 31
	lookupBits   = 16
	lookupSize   = 1 << lookupBits
)

// lookupEntry maps a 16-bit window prefix to a symbol. A zero length with a
// non-zero sub points at overflow table sub-1.
type lookupEntry struct {
	sym    uint8
	length uint8
	sub    uint16
}

// PlaneTable is the code of one colour plane.
type PlaneTable struct {
	Lengths [symbols]uint8
	Codes   [symbols]uint32
	Masks   [symbols]uint32

	base     []lookupEntry
	overflow [][]lookupEntry
}

// Tables is the decoding state built once from the codec data of a stream.
type Tables struct {
	Predictor   Predictor
	Decorrelate bool
	Context     bool
	interlace   uint8

	Planes [planes]PlaneTable
}

// Interlaced reports whether rows of the same field are two lines apart.
func (t *Tables) Interlaced(height int) bool {
	switch t.interlace {
	case interlaceOn:
		return true
	case interlaceOff:
		return false
	}
	return height > interlaceHeight
}

// ParseTables reads the codec data that follows BITMAPINFOHEADER: method byte,
// bitstream depth, flags, a reserved byte, then one run-length coded table of
// code lengths per plane.
func ParseTables(extra []byte) (*Tables, error) {
	if len(extra) < MinExtraSize {
		return nil, goavi.Errorf(goavi.ErrInvalidData, "huffyuv tables", "codec data too short: %d bytes", len(extra))
	}
	t := &Tables{
		Predictor:   Predictor(extra[0] & methodPredictor),
		Decorrelate: extra[0]&methodDecorrelate != 0,
		Context:     extra[2]&flagContext != 0,
		interlace:   (extra[2] & interlaceMask) >> interlaceShift,
	}
	if t.Predictor > Median {
		return nil, goavi.Errorf(goavi.ErrUnsupportedVideoFormat, "huffyuv tables", "predictor %d", t.Predictor)
	}
	if extra[1] != supportedBPP {
		return nil, goavi.Errorf(goavi.ErrUnsupportedVideoFormat, "huffyuv tables", "bitstream depth %d", extra[1])
	}
	if t.Context {
		return nil, goavi.Errorf(goavi.ErrUnsupportedVideoFormat, "huffyuv tables", "per-frame context tables")
	}
	data := extra[MinExtraSize:]
	for i := range t.Planes {
		n, err := readLengths(&t.Planes[i].Lengths, data)
		if err != nil {
			return nil, err
		}
		data = data[n:]
		if err = t.Planes[i].build(); err != nil {
			return nil, err
		}
	}
	logger.Debugf(t, "built %s tables, overflow groups %d/%d/%d",
		t.Predictor, len(t.Planes[0].overflow), len(t.Planes[1].overflow), len(t.Planes[2].overflow))
	return t, nil
}

func (t *Tables) String() string {
	return "HUFFYUV"
}

// readLengths decodes one run-length table. Each byte holds a repeat count in
// its top 3 bits and a length in the low 5; a zero repeat takes the count from
// the next byte.
func readLengths(dst *[symbols]uint8, data []byte) (n int, err error) {
	for i := 0; i < symbols; {
		if n >= len(data) {
			return n, goavi.Errorf(goavi.ErrInvalidData, "huffyuv tables", "length table ends at symbol %d", i)
		}
		val := data[n] & 0x1f //nolint:mnd
		repeat := int(data[n] >> 5) //nolint:mnd
		n++
		if repeat == 0 {
			if n >= len(data) {
				return n, goavi.Errorf(goavi.ErrInvalidData, "huffyuv tables", "missing repeat count at symbol %d", i)
			}
			repeat = int(data[n])
			n++
		}
		if i+repeat > symbols {
			return n, goavi.Errorf(goavi.ErrInvalidData, "huffyuv tables", "run of %d overflows at symbol %d", repeat, i)
		}
		for ; repeat > 0; repeat-- {
			dst[i] = val
			i++
		}
	}
	return n, nil
}

// assignCodes gives canonical codes from the longest length down, ascending
// by symbol within a length. An odd count left over at any length, or more
// than one code left at the root, means the lengths do not describe a prefix
// code.
func assignCodes(lengths *[symbols]uint8, codes *[symbols]uint32) error {
	var bits uint32
	for length := maxCodeLen; length > 0; length-- {
		for sym := 0; sym < symbols; sym++ {
			if int(lengths[sym]) == length {
				codes[sym] = bits
				bits++
			}
		}
		if bits&1 != 0 {
			return goavi.Errorf(goavi.ErrInvalidData, "huffyuv tables", "code lengths inconsistent at length %d", length)
		}
		bits >>= 1
	}
	if bits > 1 {
		return goavi.Errorf(goavi.ErrInvalidData, "huffyuv tables", "code lengths over-subscribed by %d", bits-1)
	}
	return nil
}

func (p *PlaneTable) build() error {
	if err := assignCodes(&p.Lengths, &p.Codes); err != nil {
		return err
	}
	p.base = make([]lookupEntry, lookupSize)
	p.overflow = nil
	groups := map[uint32]int{}
	for sym := 0; sym < symbols; sym++ {
		length := uint(p.Lengths[sym])
		if length == 0 {
			p.Masks[sym] = 0
			continue
		}
		code := p.Codes[sym]
		p.Masks[sym] = uint32(1)<<length - 1
		if length <= lookupBits {
			first := code << (lookupBits - length)
			for i := first; i < first+1<<(lookupBits-length); i++ {
				p.base[i] = lookupEntry{sym: uint8(sym), length: uint8(length)}
			}
			continue
		}
		rest := length - lookupBits
		prefix := code >> rest
		g, ok := groups[prefix]
		if !ok {
			g = len(p.overflow)
			groups[prefix] = g
			p.overflow = append(p.overflow, make([]lookupEntry, lookupSize))
			p.base[prefix] = lookupEntry{sub: uint16(g + 1)}
		}
		first := (code & (uint32(1)<<rest - 1)) << (lookupBits - rest)
		table := p.overflow[g]
		for i := first; i < first+1<<(lookupBits-rest); i++ {
			table[i] = lookupEntry{sym: uint8(sym), length: uint8(rest)}
		}
	}
	return nil
}
