package riffio

import "github.com/ugparu/goavi/utils/bits/pio"

const avihSize = 56

// Main header flags.
const (
	AVIFHasIndex       = 0x00000010
	AVIFMustUseIndex   = 0x00000020
	AVIFIsInterleaved  = 0x00000100
	AVIFTrustCKType    = 0x00000800
	AVIFWasCaptureFile = 0x00010000
	AVIFCopyrighted    = 0x00020000
)

// MainHeader is the avih chunk payload.
type MainHeader struct {
	MicroSecPerFrame    uint32
	MaxBytesPerSec      uint32
	PaddingGranularity  uint32
	Flags               uint32
	TotalFrames         uint32 // frames in the first RIFF segment only, see ODMLHeader
	InitialFrames       uint32
	Streams             uint32
	SuggestedBufferSize uint32
	Width               uint32
	Height              uint32
	Reserved            [4]uint32
}

func (h MainHeader) Len() int {
	return avihSize
}

func (h MainHeader) Marshal(b []byte) (n int) {
	for _, v := range [...]uint32{
		h.MicroSecPerFrame, h.MaxBytesPerSec, h.PaddingGranularity, h.Flags,
		h.TotalFrames, h.InitialFrames, h.Streams, h.SuggestedBufferSize,
		h.Width, h.Height,
		h.Reserved[0], h.Reserved[1], h.Reserved[2], h.Reserved[3],
	} {
		pio.PutU32LE(b[n:], v)
		n += 4
	}
	return
}

func (h *MainHeader) Unmarshal(b []byte, offset int64) (n int, err error) {
	r := fieldReader{b: b, offset: offset}
	h.MicroSecPerFrame = r.u32("MicroSecPerFrame")
	h.MaxBytesPerSec = r.u32("MaxBytesPerSec")
	h.PaddingGranularity = r.u32("PaddingGranularity")
	h.Flags = r.u32("Flags")
	h.TotalFrames = r.u32("TotalFrames")
	h.InitialFrames = r.u32("InitialFrames")
	h.Streams = r.u32("Streams")
	h.SuggestedBufferSize = r.u32("SuggestedBufferSize")
	h.Width = r.u32("Width")
	h.Height = r.u32("Height")
	for i := range h.Reserved {
		h.Reserved[i] = r.u32("Reserved")
	}
	if r.err != nil {
		return r.n, parseErr("avih", offset, r.err)
	}
	return r.n, nil
}
