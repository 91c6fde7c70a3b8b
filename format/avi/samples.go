package avi

import (
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/utils/bits/pio"
	"github.com/zaf/g711"
)

// g711 coders work on little-endian 16-bit PCM byte slices.
var (
	lawEncoders = map[goavi.SampleFormat]func([]byte) []byte{
		goavi.ALaw:  g711.EncodeAlaw,
		goavi.MuLaw: g711.EncodeUlaw,
	}
	lawDecoders = map[goavi.SampleFormat]func([]byte) []byte{
		goavi.ALaw:  g711.DecodeAlaw,
		goavi.MuLaw: g711.DecodeUlaw,
	}
)

func sampleAt(ch []int16, i int) int16 {
	if i < len(ch) {
		return ch[i]
	}
	return 0
}

// encodeSamples interleaves count samples of every channel of chans into dst.
// A channel shorter than count is padded with silence.
func encodeSamples(dst []byte, sf goavi.SampleFormat, chans [][]int16, count int) {
	n := len(chans)
	switch sf {
	case goavi.U8:
		for i := 0; i < count; i++ {
			for c, ch := range chans {
				dst[i*n+c] = byte(sampleAt(ch, i)>>8 + 128) //nolint:mnd
			}
		}
	case goavi.S16:
		for i := 0; i < count; i++ {
			for c, ch := range chans {
				pio.PutI16LE(dst[(i*n+c)*2:], sampleAt(ch, i))
			}
		}
	case goavi.ALaw, goavi.MuLaw:
		pcm := make([]byte, count*n*2) //nolint:mnd
		encodeSamples(pcm, goavi.S16, chans, count)
		copy(dst, lawEncoders[sf](pcm))
	}
}

// decodeChannel extracts channel ch of an interleaved payload of channels
// channels into dst and returns how many samples it wrote.
func decodeChannel(dst []int16, src []byte, sf goavi.SampleFormat, channels, ch int) int {
	if sf == goavi.ALaw || sf == goavi.MuLaw {
		src = lawDecoders[sf](src)
		sf = goavi.S16
	}
	frameSize := sf.BytesPerSample() * channels
	if frameSize == 0 {
		return 0
	}
	n := min(len(dst), len(src)/frameSize)
	for i := 0; i < n; i++ {
		off := i*frameSize + ch*sf.BytesPerSample()
		switch sf {
		case goavi.U8:
			dst[i] = (int16(src[off]) - 128) << 8 //nolint:mnd
		case goavi.S16:
			dst[i] = pio.I16LE(src[off:])
		}
	}
	return n
}
