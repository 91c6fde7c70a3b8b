package goavi

// SampleFormat describes how one audio sample is laid out inside a sample chunk.
type SampleFormat uint8

// Constants representing the on-disk sample encodings.
const (
	U8    = SampleFormat(iota + 1) // 8-bit unsigned PCM
	S16                            // signed 16-bit little-endian PCM
	ALaw                           // 8-bit G.711 A-law
	MuLaw                          // 8-bit G.711 mu-law
)

// SampleFormatOf derives the sample encoding from a format tag and bit depth.
// The second result is false for combinations the engine cannot handle.
func SampleFormatOf(codec AudioCodec, bitsPerSample int) (SampleFormat, bool) {
	switch {
	case (codec == PCM || codec == Extensible) && bitsPerSample == 8: //nolint:mnd
		return U8, true
	case (codec == PCM || codec == Extensible) && bitsPerSample == 16: //nolint:mnd
		return S16, true
	case codec == PCMAlaw && bitsPerSample == 8: //nolint:mnd
		return ALaw, true
	case codec == PCMMulaw && bitsPerSample == 8: //nolint:mnd
		return MuLaw, true
	}
	return 0, false
}

// BytesPerSample returns the number of bytes per audio sample for the given sample format.
func (sf SampleFormat) BytesPerSample() int {
	switch sf {
	case U8, ALaw, MuLaw:
		return 1
	case S16:
		return 2 //nolint:mnd
	default:
		return 0
	}
}

// String returns a human-readable string representation of the sample format.
func (sf SampleFormat) String() string {
	switch sf {
	case U8:
		return "U8"
	case S16:
		return "S16"
	case ALaw:
		return "ALAW"
	case MuLaw:
		return "MULAW"
	default:
		return "?"
	}
}
