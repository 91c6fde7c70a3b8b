package riffio

import "github.com/ugparu/goavi/utils/bits/pio"

const (
	strhSize = 56
	// Writers older than the frame rectangle emit 48 bytes.
	strhMinSize = 48
)

// Rect is the destination rectangle of a video stream.
type Rect struct {
	Left, Top, Right, Bottom int16
}

// StreamHeader is the strh chunk payload.
type StreamHeader struct {
	Type                FourCC // vids or auds
	Handler             FourCC
	Flags               uint32
	Priority            uint16
	Language            uint16
	InitialFrames       uint32
	Scale               uint32
	Rate                uint32 // Rate/Scale samples per second
	Start               uint32
	Length              uint32 // in units of Scale/Rate
	SuggestedBufferSize uint32
	Quality             int32 // -1 selects the default
	SampleSize          uint32
	Frame               Rect
}

func (h StreamHeader) Len() int {
	return strhSize
}

func (h StreamHeader) Marshal(b []byte) (n int) {
	pio.PutU32LE(b[n:], uint32(h.Type))
	n += 4
	pio.PutU32LE(b[n:], uint32(h.Handler))
	n += 4
	pio.PutU32LE(b[n:], h.Flags)
	n += 4
	pio.PutU16LE(b[n:], h.Priority)
	n += 2
	pio.PutU16LE(b[n:], h.Language)
	n += 2
	for _, v := range [...]uint32{h.InitialFrames, h.Scale, h.Rate, h.Start, h.Length, h.SuggestedBufferSize} {
		pio.PutU32LE(b[n:], v)
		n += 4
	}
	pio.PutI32LE(b[n:], h.Quality)
	n += 4
	pio.PutU32LE(b[n:], h.SampleSize)
	n += 4
	for _, v := range [...]int16{h.Frame.Left, h.Frame.Top, h.Frame.Right, h.Frame.Bottom} {
		pio.PutI16LE(b[n:], v)
		n += 2
	}
	return
}

// Unmarshal accepts the short 48-byte form and leaves Frame zero in that case.
func (h *StreamHeader) Unmarshal(b []byte, offset int64) (n int, err error) {
	r := fieldReader{b: b, offset: offset}
	h.Type = r.fourCC("Type")
	h.Handler = r.fourCC("Handler")
	h.Flags = r.u32("Flags")
	h.Priority = r.u16("Priority")
	h.Language = r.u16("Language")
	h.InitialFrames = r.u32("InitialFrames")
	h.Scale = r.u32("Scale")
	h.Rate = r.u32("Rate")
	h.Start = r.u32("Start")
	h.Length = r.u32("Length")
	h.SuggestedBufferSize = r.u32("SuggestedBufferSize")
	h.Quality = r.i32("Quality")
	h.SampleSize = r.u32("SampleSize")
	if r.err != nil {
		return r.n, parseErr("strh", offset, r.err)
	}
	if len(b) < strhSize {
		h.Frame = Rect{}
		return r.n, nil
	}
	h.Frame.Left = r.i16("Frame.Left")
	h.Frame.Top = r.i16("Frame.Top")
	h.Frame.Right = r.i16("Frame.Right")
	h.Frame.Bottom = r.i16("Frame.Bottom")
	return r.n, nil
}
