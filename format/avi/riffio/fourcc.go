package riffio

import (
	"fmt"

	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/utils/bits/pio"
)

// FourCC is a four character code stored little-endian, so that its bytes in the
// file read as the characters of the code.
type FourCC uint32

func StringToFourCC(s string) FourCC {
	var b [4]byte
	copy(b[:], s)
	return FourCC(pio.U32LE(b[:]))
}

func (f FourCC) String() string {
	var b [4]byte
	pio.PutU32LE(b[:], uint32(f))
	for i := range b {
		if b[i] < ' ' || b[i] > '~' {
			b[i] = '.'
		}
	}
	return string(b[:])
}

// Bytes returns the raw four bytes of the code.
func (f FourCC) Bytes() [4]byte {
	var b [4]byte
	pio.PutU32LE(b[:], uint32(f))
	return b
}

// Chunk and list type codes.
const (
	RIFF = FourCC('R' | 'I'<<8 | 'F'<<16 | 'F'<<24)
	LIST = FourCC('L' | 'I'<<8 | 'S'<<16 | 'T'<<24)
	AVI  = FourCC('A' | 'V'<<8 | 'I'<<16 | ' '<<24)
	AVIX = FourCC('A' | 'V'<<8 | 'I'<<16 | 'X'<<24)

	HDRL = FourCC('h' | 'd'<<8 | 'r'<<16 | 'l'<<24)
	STRL = FourCC('s' | 't'<<8 | 'r'<<16 | 'l'<<24)
	MOVI = FourCC('m' | 'o'<<8 | 'v'<<16 | 'i'<<24)
	ODML = FourCC('o' | 'd'<<8 | 'm'<<16 | 'l'<<24)
	REC  = FourCC('r' | 'e'<<8 | 'c'<<16 | ' '<<24)
	INFO = FourCC('I' | 'N'<<8 | 'F'<<16 | 'O'<<24)

	AVIH = FourCC('a' | 'v'<<8 | 'i'<<16 | 'h'<<24)
	STRH = FourCC('s' | 't'<<8 | 'r'<<16 | 'h'<<24)
	STRF = FourCC('s' | 't'<<8 | 'r'<<16 | 'f'<<24)
	STRD = FourCC('s' | 't'<<8 | 'r'<<16 | 'd'<<24)
	STRN = FourCC('s' | 't'<<8 | 'r'<<16 | 'n'<<24)
	INDX = FourCC('i' | 'n'<<8 | 'd'<<16 | 'x'<<24)
	IDX1 = FourCC('i' | 'd'<<8 | 'x'<<16 | '1'<<24)
	DMLH = FourCC('d' | 'm'<<8 | 'l'<<16 | 'h'<<24)
	JUNK = FourCC('J' | 'U'<<8 | 'N'<<16 | 'K'<<24)

	VIDS = FourCC('v' | 'i'<<8 | 'd'<<16 | 's'<<24)
	AUDS = FourCC('a' | 'u'<<8 | 'd'<<16 | 's'<<24)
)

// Two character codes appended to the stream number in sample chunk IDs.
const (
	TwoCCUncompressed = "db"
	TwoCCCompressed   = "dc"
	TwoCCAudio        = "wb"
)

// MaxStreams is the largest stream count a two digit chunk ID can address.
const MaxStreams = 100

// StreamChunkID builds a sample chunk ID such as "01wb".
func StreamChunkID(stream int, twoCC string) (FourCC, error) {
	if stream < 0 || stream >= MaxStreams {
		return 0, goavi.Errorf(goavi.ErrUnsupported, "chunk id", "stream number %d outside 0-99", stream)
	}
	return StringToFourCC(fmt.Sprintf("%02d%s", stream, twoCC)), nil
}

// IndexChunkID builds the OpenDML sub-index ID of a stream, "ix" followed by two digits.
func IndexChunkID(stream int) (FourCC, error) {
	if stream < 0 || stream >= MaxStreams {
		return 0, goavi.Errorf(goavi.ErrUnsupported, "index id", "stream number %d outside 0-99", stream)
	}
	return StringToFourCC(fmt.Sprintf("ix%02d", stream)), nil
}

// ParseStreamNumber extracts the two digit stream number of a sample chunk ID.
func ParseStreamNumber(id FourCC) (int, error) {
	b := id.Bytes()
	if b[0] < '0' || b[0] > '9' || b[1] < '0' || b[1] > '9' {
		return 0, goavi.Errorf(goavi.ErrInvalidData, "chunk id", "%q has no stream number", id.String())
	}
	return int(b[0]-'0')*10 + int(b[1]-'0'), nil //nolint:mnd
}

// TwoCC returns the two character kind code of a sample chunk ID.
func TwoCC(id FourCC) string {
	b := id.Bytes()
	return string(b[2:])
}
