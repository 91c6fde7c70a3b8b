package avi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/format/avi/riffio"
	"github.com/ugparu/goavi/frame"
	"github.com/ugparu/goavi/utils/bits/pio"
	"github.com/ugparu/goavi/utils/memfs"
)

const moviePath = "movie.avi"

func videoConfig(codec goavi.VideoCodec, w, h int) goavi.Config {
	return goavi.Config{
		VideoCodec: codec,
		Width:      w,
		Height:     h,
		FrameRate:  goavi.Rational{Num: 25, Den: 1},
	}
}

func withAudio(cfg goavi.Config, codec goavi.AudioCodec, bits, channels, streams int) goavi.Config {
	cfg.AudioCodec = codec
	cfg.BitsPerSample = bits
	cfg.AudioChannels = channels
	cfg.AudioStreams = streams
	cfg.SampleRate = 8000
	return cfg
}

// pattern fills an image with bytes that differ between frames. The X byte of
// RGB32 pixels stays zero because it is not stored.
func pattern(format frame.PixelFormat, w, h, seed int) *frame.Image {
	img := frame.New(format, w, h)
	for i := range img.Pix {
		img.Pix[i] = byte(i*7 + seed*13 + 1)
		if format == frame.RGB32 && i%4 == 3 {
			img.Pix[i] = 0
		}
	}
	return img
}

func tone(n, seed int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(i*131 + seed*1009)
	}
	return s
}

func imageFormat(codec goavi.VideoCodec) frame.PixelFormat {
	if codec == goavi.RGB24 {
		return frame.RGB32
	}
	return frame.YUY2
}

func fileBytes(t *testing.T, fs *memfs.FS) []byte {
	t.Helper()
	b, err := fs.ReadFile(moviePath)
	require.NoError(t, err)
	return b
}

func find(t *testing.T, r *bytes.Reader, rng riffio.Range, id riffio.FourCC) riffio.Chunk {
	t.Helper()
	c, err := riffio.FindChunk(r, rng, id)
	require.NoError(t, err)
	return c
}

func children(t *testing.T, c riffio.Chunk) riffio.Range {
	t.Helper()
	rng, err := riffio.ChildRange(c)
	require.NoError(t, err)
	return rng
}

// movieLayout locates the main chunks of the first RIFF segment of b.
type movieLayout struct {
	r    *bytes.Reader
	top  riffio.Range
	hdrl riffio.Range
	strl []riffio.Range
	movi riffio.Chunk
	idx1 riffio.Chunk
}

func layout(t *testing.T, b []byte) movieLayout {
	t.Helper()
	l := movieLayout{r: bytes.NewReader(b)}
	riff, err := riffio.ReadChunk(l.r, 0)
	require.NoError(t, err)
	l.top = children(t, riff)
	hdrl, err := riffio.FindList(l.r, l.top, riffio.HDRL)
	require.NoError(t, err)
	l.hdrl = children(t, hdrl)
	strl, err := riffio.FindList(l.r, l.hdrl, riffio.STRL)
	for ; err == nil; strl, err = riffio.FindNextList(l.r, l.hdrl, strl, riffio.STRL) {
		l.strl = append(l.strl, children(t, strl))
	}
	require.ErrorIs(t, err, riffio.ErrNotFound)
	l.movi, err = riffio.FindList(l.r, l.top, riffio.MOVI)
	require.NoError(t, err)
	l.idx1, err = riffio.FindChunk(l.r, l.top, riffio.IDX1)
	require.NoError(t, err)
	return l
}

func putU32(b []byte, off int64, v uint32) {
	pio.PutU32LE(b[off:], v)
}
