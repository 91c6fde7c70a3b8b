package riffio

import "github.com/ugparu/goavi/utils/bits/pio"

const (
	bitmapInfoHeaderSize = 40
	waveFormatSize       = 16
	waveFormatExSize     = 18
	extensibleExtraSize  = 22

	// FormatExtensible is the WAVE_FORMAT_EXTENSIBLE tag.
	FormatExtensible = 0xFFFE
)

// BitmapInfoHeader is the strf payload of a video stream. Bytes after the
// fixed 40-byte header are kept as codec data.
type BitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32 // positive for bottom-up rows
	Planes        uint16
	BitCount      uint16
	Compression   FourCC
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
	Extra         []byte
}

func (h BitmapInfoHeader) Len() int {
	return bitmapInfoHeaderSize + len(h.Extra)
}

// Marshal writes the header. Size is derived from the encoded length.
func (h BitmapInfoHeader) Marshal(b []byte) (n int) {
	pio.PutU32LE(b[n:], uint32(h.Len()))
	n += 4
	pio.PutI32LE(b[n:], h.Width)
	n += 4
	pio.PutI32LE(b[n:], h.Height)
	n += 4
	pio.PutU16LE(b[n:], h.Planes)
	n += 2
	pio.PutU16LE(b[n:], h.BitCount)
	n += 2
	pio.PutU32LE(b[n:], uint32(h.Compression))
	n += 4
	pio.PutU32LE(b[n:], h.SizeImage)
	n += 4
	pio.PutI32LE(b[n:], h.XPelsPerMeter)
	n += 4
	pio.PutI32LE(b[n:], h.YPelsPerMeter)
	n += 4
	pio.PutU32LE(b[n:], h.ClrUsed)
	n += 4
	pio.PutU32LE(b[n:], h.ClrImportant)
	n += 4
	n += copy(b[n:], h.Extra)
	return
}

func (h *BitmapInfoHeader) Unmarshal(b []byte, offset int64) (n int, err error) {
	r := fieldReader{b: b, offset: offset}
	h.Size = r.u32("Size")
	h.Width = r.i32("Width")
	h.Height = r.i32("Height")
	h.Planes = r.u16("Planes")
	h.BitCount = r.u16("BitCount")
	h.Compression = r.fourCC("Compression")
	h.SizeImage = r.u32("SizeImage")
	h.XPelsPerMeter = r.i32("XPelsPerMeter")
	h.YPelsPerMeter = r.i32("YPelsPerMeter")
	h.ClrUsed = r.u32("ClrUsed")
	h.ClrImportant = r.u32("ClrImportant")
	if r.err != nil {
		return r.n, parseErr("strf(vids)", offset, r.err)
	}
	h.Extra = nil
	if len(b) > r.n {
		h.Extra = append([]byte(nil), b[r.n:]...)
	}
	return len(b), nil
}

// WaveFormatEx is the strf payload of an audio stream.
type WaveFormatEx struct {
	FormatTag      uint16
	Channels       uint16
	SamplesPerSec  uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16
	Extra          []byte // cbSize bytes after the 18-byte header

	// Set by Unmarshal for WAVE_FORMAT_EXTENSIBLE.
	ValidBitsPerSample uint16
	ChannelMask        uint32
	SubFormatTag       uint16
}

// EffectiveFormatTag resolves WAVE_FORMAT_EXTENSIBLE to the tag of its sub-format GUID.
func (w WaveFormatEx) EffectiveFormatTag() uint16 {
	if w.FormatTag == FormatExtensible && w.SubFormatTag != 0 {
		return w.SubFormatTag
	}
	return w.FormatTag
}

// Len is 16 for plain PCM without extra bytes, otherwise 18 plus cbSize.
func (w WaveFormatEx) Len() int {
	if len(w.Extra) == 0 {
		return waveFormatSize
	}
	return waveFormatExSize + len(w.Extra)
}

func (w WaveFormatEx) Marshal(b []byte) (n int) {
	pio.PutU16LE(b[n:], w.FormatTag)
	n += 2
	pio.PutU16LE(b[n:], w.Channels)
	n += 2
	pio.PutU32LE(b[n:], w.SamplesPerSec)
	n += 4
	pio.PutU32LE(b[n:], w.AvgBytesPerSec)
	n += 4
	pio.PutU16LE(b[n:], w.BlockAlign)
	n += 2
	pio.PutU16LE(b[n:], w.BitsPerSample)
	n += 2
	if len(w.Extra) == 0 {
		return
	}
	pio.PutU16LE(b[n:], uint16(len(w.Extra)))
	n += 2
	n += copy(b[n:], w.Extra)
	return
}

func (w *WaveFormatEx) Unmarshal(b []byte, offset int64) (n int, err error) {
	r := fieldReader{b: b, offset: offset}
	w.FormatTag = r.u16("FormatTag")
	w.Channels = r.u16("Channels")
	w.SamplesPerSec = r.u32("SamplesPerSec")
	w.AvgBytesPerSec = r.u32("AvgBytesPerSec")
	w.BlockAlign = r.u16("BlockAlign")
	w.BitsPerSample = r.u16("BitsPerSample")
	if r.err != nil {
		return r.n, parseErr("strf(auds)", offset, r.err)
	}
	w.Extra = nil
	w.ValidBitsPerSample, w.ChannelMask, w.SubFormatTag = 0, 0, 0
	if len(b) < waveFormatExSize {
		return r.n, nil
	}
	cbSize := int(r.u16("cbSize"))
	if cbSize > len(b)-r.n {
		cbSize = len(b) - r.n
	}
	w.Extra = append([]byte(nil), b[r.n:r.n+cbSize]...)
	r.n += cbSize
	if w.FormatTag == FormatExtensible {
		if len(w.Extra) < extensibleExtraSize {
			return r.n, parseErr("SubFormat", offset+waveFormatExSize, nil)
		}
		w.ValidBitsPerSample = pio.U16LE(w.Extra[0:])
		w.ChannelMask = pio.U32LE(w.Extra[2:])
		w.SubFormatTag = pio.U16LE(w.Extra[6:])
	}
	return r.n, nil
}
