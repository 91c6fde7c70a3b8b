package goavi

// VideoCodec identifies how video frames are stored in the movie.
type VideoCodec uint8

// Video codecs known to the engine. HuffYUV is decode only.
const (
	VideoNone VideoCodec = iota
	RGB24                // uncompressed bottom-up BGR, BI_RGB
	YUY2
	UYVY
	HDYC
	HuffYUV
	VideoUnknown
)

// videoFourCCs maps codecs to the biCompression FourCC written in the format chunk.
var videoFourCCs = map[VideoCodec]string{
	RGB24:   "\x00\x00\x00\x00",
	YUY2:    "YUY2",
	UYVY:    "UYVY",
	HDYC:    "HDYC",
	HuffYUV: "HFYU",
}

// FourCC returns the compression code for the format chunk.
func (vc VideoCodec) FourCC() string {
	return videoFourCCs[vc]
}

// Handler returns the stream header handler code.
func (vc VideoCodec) Handler() string {
	if vc == RGB24 {
		return "DIB "
	}
	return vc.FourCC()
}

// VideoCodecFromFourCC maps a compression code back to a codec.
func VideoCodecFromFourCC(fourcc string) VideoCodec {
	switch fourcc {
	case "\x00\x00\x00\x00", "DIB ", "RGB ":
		return RGB24
	case "YUY2", "YUYV":
		return YUY2
	case "UYVY", "2vuy":
		return UYVY
	case "HDYC":
		return HDYC
	case "HFYU":
		return HuffYUV
	}
	return VideoUnknown
}

// IsYUV reports whether frames are stored as packed 16-bit YUV.
func (vc VideoCodec) IsYUV() bool {
	return vc == YUY2 || vc == UYVY || vc == HDYC || vc == HuffYUV
}

// BitCount is the biBitCount written for the codec.
func (vc VideoCodec) BitCount() uint16 {
	switch vc {
	case RGB24:
		return 24 //nolint:mnd
	case YUY2, UYVY, HDYC, HuffYUV:
		return 16 //nolint:mnd
	}
	return 0
}

func (vc VideoCodec) String() string {
	switch vc {
	case VideoNone:
		return "NONE"
	case RGB24:
		return "RGB24"
	case YUY2:
		return "YUY2"
	case UYVY:
		return "UYVY"
	case HDYC:
		return "HDYC"
	case HuffYUV:
		return "HFYU"
	}
	return "UNKNOWN"
}

// AudioCodec is the WAVE format tag of an audio stream.
type AudioCodec uint16

// Audio format tags.
const (
	AudioNone  AudioCodec = 0x0000
	PCM        AudioCodec = 0x0001
	PCMAlaw    AudioCodec = 0x0006
	PCMMulaw   AudioCodec = 0x0007
	Extensible AudioCodec = 0xFFFE
)

func (ac AudioCodec) String() string {
	switch ac {
	case AudioNone:
		return "NONE"
	case PCM:
		return "PCM"
	case PCMAlaw:
		return "PCM_ALAW"
	case PCMMulaw:
		return "PCM_MULAW"
	case Extensible:
		return "EXTENSIBLE"
	}
	return "UNKNOWN"
}
